package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Diagnostics is the log-only view of an error: its code, the wrapped chain
// and any Postgres detail found along it. None of it reaches the client.
type Diagnostics struct {
	Code     Code
	Chain    []string
	Postgres map[string]string
}

func Diagnose(err error) Diagnostics {
	var d Diagnostics
	if err == nil {
		return d
	}
	d.Code = CodeOf(err)
	for e := err; e != nil; e = stdErrors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	d.Postgres = postgresFields(err)
	return d
}

// Fields flattens the diagnostics into log fields, skipping empty values.
func (d Diagnostics) Fields() map[string]any {
	fields := map[string]any{}
	if d.Code != "" {
		fields["error_code"] = d.Code
	}
	if len(d.Chain) > 1 {
		fields["error_chain"] = d.Chain
	}
	for k, v := range d.Postgres {
		if v != "" {
			fields["pg_"+k] = v
		}
	}
	return fields
}

func postgresFields(err error) map[string]string {
	var pgxErr *pgconn.PgError
	if stdErrors.As(err, &pgxErr) {
		return map[string]string{
			"code":       pgxErr.Code,
			"constraint": pgxErr.ConstraintName,
			"table":      pgxErr.TableName,
			"column":     pgxErr.ColumnName,
			"detail":     pgxErr.Detail,
			"message":    pgxErr.Message,
		}
	}
	var pqErr *pq.Error
	if stdErrors.As(err, &pqErr) {
		return map[string]string{
			"code":       string(pqErr.Code),
			"constraint": pqErr.Constraint,
			"table":      pqErr.Table,
			"column":     pqErr.Column,
			"detail":     pqErr.Detail,
			"message":    pqErr.Message,
		}
	}
	return nil
}
