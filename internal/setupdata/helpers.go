package setupdata

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"limscore/internal/importer"
	"limscore/pkg/domain"
)

func isNotFound(err error) bool {
	var nf domain.ErrNotFound
	return errors.As(err, &nf)
}

// copyText stores the named columns verbatim as text fields, blanks
// included, so re-imports overwrite stale values.
func copyText(fields domain.Values, rec importer.Record, columns ...string) {
	for _, column := range columns {
		fields[column] = domain.TextValue(rec.Text(column))
	}
}

// setDate stores a column under field as a typed date when it parses, or as
// verbatim text when it does not. Blank cells store nothing.
func setDate(fields domain.Values, rec importer.Record, column, field string) {
	if t, ok := rec.Date(column); ok {
		fields[field] = domain.DateValue(t)
		return
	}
	if s := rec.Text(column); s != "" {
		fields[field] = domain.TextValue(s)
	}
}

// refIfFound resolves c and stores a reference under field when the target
// exists. Misses are logged by the resolver and leave the field unset;
// storage errors propagate.
func refIfFound(ctx context.Context, run *importer.Run, fields domain.Values, field string, c importer.Criteria) error {
	target, err := run.Resolve(ctx, c)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	fields[field] = domain.RefValue(target.UID)
	return nil
}

// fullName joins the Firstname and Surname columns the way contact titles
// are built everywhere in the dataset.
func fullName(rec importer.Record) string {
	return strings.TrimSpace(rec.Text("Firstname") + " " + rec.Text("Surname"))
}

// usernameTaken reports whether another entity of the same kind already
// carries the username.
func usernameTaken(ctx context.Context, run *importer.Run, kind domain.Kind, username string) (bool, error) {
	matches, err := run.Repo.Query(ctx, kind, domain.Filters{"Username": username})
	if err != nil {
		return false, err
	}
	return len(matches) > 0, nil
}

// applyLogin applies the shared access-credential rules for contact sheets:
// a duplicate username skips the whole record, a missing username or email
// leaves the contact without credentials, and a missing password falls back
// to the username. The username and password land in fields; the returned
// skip tells the caller to drop the record before creating it.
func applyLogin(ctx context.Context, run *importer.Run, rec importer.Record, kind domain.Kind, name string, fields domain.Values) (skip bool, err error) {
	username := rec.Text("Username")
	if username != "" {
		taken, err := usernameTaken(ctx, run, kind, username)
		if err != nil {
			return false, err
		}
		if taken {
			run.Log.Errorw("username already exists, contact omitted",
				"sheet", rec.Sheet, "row", rec.Row, "username", username)
			run.Metrics.RowSkipped(rec.Sheet)
			return true, nil
		}
		fields["Username"] = domain.TextValue(username)
	}
	if username == "" || rec.Text("EmailAddress") == "" {
		run.Log.Warnw("contact created without access credentials",
			"sheet", rec.Sheet, "row", rec.Row, "fullname", name)
		return false, nil
	}
	password := rec.Text("Password")
	if password == "" {
		password = username
		run.Log.Warnw("no password defined, using the username as password",
			"sheet", rec.Sheet, "row", rec.Row, "username", username)
	}
	fields["Password"] = domain.TextValue(password)
	return false, nil
}

// durationRecord reads the <prefix>_days/_hours/_minutes columns into the
// day/hour/minute record used for retention periods and turnaround times.
// Missing or unparseable cells count as zero.
func durationRecord(rec importer.Record, prefix string) domain.Record {
	return domain.Record{
		"days":    strconv.FormatInt(rec.IntOr(prefix+"_days", 0), 10),
		"hours":   strconv.FormatInt(rec.IntOr(prefix+"_hours", 0), 10),
		"minutes": strconv.FormatInt(rec.IntOr(prefix+"_minutes", 0), 10),
	}
}

// splitList splits a comma-separated cell into trimmed, non-empty items.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	return items
}

// singleton returns the one entity of the given kind, creating it with the
// title when none exists yet. The vertical sheets (Lab Information, Setup)
// and the ID prefix sheet all update through it.
func singleton(ctx context.Context, run *importer.Run, kind domain.Kind, title string) (domain.Entity, error) {
	matches, err := run.Repo.Query(ctx, kind, nil)
	if err != nil {
		return domain.Entity{}, err
	}
	if len(matches) > 0 {
		return matches[0], nil
	}
	return run.Create(ctx, "", kind, title, domain.Values{})
}

// updateFields rewrites the given fields on an existing entity.
func updateFields(ctx context.Context, run *importer.Run, uid string, fields domain.Values) error {
	_, err := run.Repo.Update(ctx, uid, func(e *domain.Entity) error {
		for name, value := range fields {
			e.SetField(name, value)
		}
		return nil
	})
	return err
}
