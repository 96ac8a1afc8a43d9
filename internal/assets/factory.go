package assets

import (
	"context"
	"fmt"
	"os"

	"limscore/pkg/domain"
)

// Open selects an asset source implementation using environment variables.
//
//	LIMSCORE_ASSET_DRIVER: fs|s3|memory (default fs)
//	LIMSCORE_ASSET_DIR: directory root when driver=fs (default ./assets)
//	(S3 specific variables documented in s3.go)
func Open(ctx context.Context) (domain.AssetSource, error) {
	driver := os.Getenv("LIMSCORE_ASSET_DRIVER")
	if driver == "" {
		driver = DriverFS
	}
	switch driver {
	case DriverFS:
		return NewDir(os.Getenv("LIMSCORE_ASSET_DIR"))
	case DriverS3:
		return OpenS3FromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown asset driver %s", driver)
	}
}
