// Package repositories contains the PostgreSQL persistence adapters.
package repositories

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/propshield/climarisk/internal/domain/risk"
	"github.com/propshield/climarisk/internal/infrastructure/database/postgres"
	"github.com/propshield/climarisk/internal/infrastructure/monitoring/logging"
	"github.com/propshield/climarisk/pkg/errors"
)

// AssessmentRepository stores assessment snapshots.  The full assessment is
// kept as a JSONB document; the headline columns exist for querying and
// ordering without unpacking the document.
type AssessmentRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewAssessmentRepository constructs a ready-to-use repository.
func NewAssessmentRepository(conn *postgres.Pool, log logging.Logger) *AssessmentRepository {
	if log == nil {
		log = logging.NewNop()
	}
	return &AssessmentRepository{pool: conn.Raw(), logger: log.Named("assessment_repo")}
}

// Save appends one assessment snapshot.  Assessments are immutable; a new
// assessment for the same property is a new row, never an update.
func (r *AssessmentRepository) Save(ctx context.Context, a *risk.RiskAssessment) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode assessment")
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO risk_assessments (
			id, property_id, request_id, assessment_date,
			overall_score, overall_level, overall_confidence, document
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		uuid.New(), a.PropertyID, a.Metadata.RequestID, a.AssessmentDate,
		a.OverallRisk.Score, string(a.OverallRisk.Level), a.OverallRisk.Confidence, doc,
	)
	if err != nil {
		r.logger.Error("AssessmentRepository.Save", logging.Err(err),
			logging.String("property_id", a.PropertyID))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert assessment")
	}
	return nil
}

// FindLatestByProperty returns the most recent assessment for a property.
func (r *AssessmentRepository) FindLatestByProperty(ctx context.Context, propertyID string) (*risk.RiskAssessment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT document FROM risk_assessments
		WHERE property_id = $1
		ORDER BY assessment_date DESC, created_at DESC
		LIMIT 1`, propertyID)

	a, err := scanAssessment(row)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeAssessmentNotFound,
				fmt.Sprintf("no assessment for property %s", propertyID))
		}
		return nil, err
	}
	return a, nil
}

// FindHistory returns assessments for a property, newest first.
func (r *AssessmentRepository) FindHistory(ctx context.Context, propertyID string, limit, offset int) ([]*risk.RiskAssessment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT document FROM risk_assessments
		WHERE property_id = $1
		ORDER BY assessment_date DESC, created_at DESC
		LIMIT $2 OFFSET $3`, propertyID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query assessment history")
	}
	defer rows.Close()

	var history []*risk.RiskAssessment
	for rows.Next() {
		a, scanErr := scanAssessment(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		history = append(history, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate assessment history")
	}
	return history, nil
}

// DeleteByProperty removes all snapshots for a property.  Used by retention
// jobs, not by the request path.
func (r *AssessmentRepository) DeleteByProperty(ctx context.Context, propertyID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM risk_assessments WHERE property_id = $1`, propertyID)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete assessments")
	}
	return tag.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssessment(row rowScanner) (*risk.RiskAssessment, error) {
	var doc []byte
	if err := row.Scan(&doc); err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan assessment row")
	}
	var a risk.RiskAssessment
	if err := json.Unmarshal(doc, &a); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode assessment document")
	}
	return &a, nil
}
