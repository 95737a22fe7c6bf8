package evaluations

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tradeportal-backend/internal/applications"
)

// PGRepo implements Repo using Postgres. Creation serializes on the parent
// application row so concurrent evaluators cannot create duplicates.
type PGRepo struct {
	DB *sql.DB
}

const evaluationColumns = `id, application_id, evaluator_id, credit_scoring, kyc, aml, risk_assessment, overall_status, completed_steps, final_notes, final_recommendation, created_at, updated_at`

func (r *PGRepo) GetOrCreateForApplication(ctx context.Context, applicationID, evaluatorID string) (Evaluation, bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Evaluation{}, false, err
	}
	defer tx.Rollback()

	// Serialize per-application to avoid duplicate evaluation creation.
	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM applications WHERE id = $1 FOR UPDATE`, applicationID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Evaluation{}, false, applications.ErrNotFound
		}
		return Evaluation{}, false, err
	}

	existing, err := scanEvaluation(tx.QueryRowContext(ctx,
		`SELECT `+evaluationColumns+` FROM evaluations WHERE application_id = $1`, applicationID))
	if err == nil {
		if err := tx.Commit(); err != nil {
			return Evaluation{}, false, err
		}
		return existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Evaluation{}, false, err
	}

	eval := newEvaluation(uuid.NewString(), applicationID, evaluatorID, time.Now().UTC())
	if err := insertEvaluation(ctx, tx, eval); err != nil {
		return Evaluation{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return Evaluation{}, false, err
	}
	return eval, true, nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Evaluation, error) {
	eval, err := scanEvaluation(r.DB.QueryRowContext(ctx,
		`SELECT `+evaluationColumns+` FROM evaluations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Evaluation{}, ErrNotFound
		}
		return Evaluation{}, err
	}
	return eval, nil
}

func (r *PGRepo) GetByApplication(ctx context.Context, applicationID string) (Evaluation, error) {
	eval, err := scanEvaluation(r.DB.QueryRowContext(ctx,
		`SELECT `+evaluationColumns+` FROM evaluations WHERE application_id = $1`, applicationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Evaluation{}, ErrNotFound
		}
		return Evaluation{}, err
	}
	return eval, nil
}

func (r *PGRepo) Update(ctx context.Context, eval Evaluation) error {
	creditJSON, kycJSON, amlJSON, riskJSON, err := marshalChecks(eval)
	if err != nil {
		return err
	}

	const query = `
UPDATE evaluations
SET evaluator_id = $1, credit_scoring = $2, kyc = $3, aml = $4, risk_assessment = $5,
    overall_status = $6, completed_steps = $7, final_notes = $8, final_recommendation = $9, updated_at = now()
WHERE id = $10`
	res, err := r.DB.ExecContext(ctx, query,
		eval.EvaluatorID,
		creditJSON,
		kycJSON,
		amlJSON,
		riskJSON,
		string(eval.OverallStatus),
		eval.CompletedSteps,
		eval.FinalNotes,
		eval.FinalRecommendation,
		eval.ID,
	)
	if err != nil {
		return fmt.Errorf("update evaluation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) EvaluatedApplicationIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT application_id FROM evaluations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var appID string
		if err := rows.Scan(&appID); err != nil {
			return nil, err
		}
		out[appID] = struct{}{}
	}
	return out, rows.Err()
}

func insertEvaluation(ctx context.Context, tx *sql.Tx, eval Evaluation) error {
	creditJSON, kycJSON, amlJSON, riskJSON, err := marshalChecks(eval)
	if err != nil {
		return err
	}

	const query = `
INSERT INTO evaluations (id, application_id, evaluator_id, credit_scoring, kyc, aml, risk_assessment, overall_status, completed_steps, final_notes, final_recommendation, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`
	if _, err := tx.ExecContext(ctx, query,
		eval.ID,
		eval.ApplicationID,
		eval.EvaluatorID,
		creditJSON,
		kycJSON,
		amlJSON,
		riskJSON,
		string(eval.OverallStatus),
		eval.CompletedSteps,
		eval.FinalNotes,
		eval.FinalRecommendation,
		eval.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

func marshalChecks(eval Evaluation) (credit, kyc, aml, risk []byte, err error) {
	if credit, err = json.Marshal(eval.CreditScoring); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode credit scoring: %w", err)
	}
	if kyc, err = json.Marshal(eval.KYC); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode kyc: %w", err)
	}
	if aml, err = json.Marshal(eval.AML); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode aml: %w", err)
	}
	if risk, err = json.Marshal(eval.RiskAssessment); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode risk assessment: %w", err)
	}
	return credit, kyc, aml, risk, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvaluation(row rowScanner) (Evaluation, error) {
	var (
		eval                                   Evaluation
		creditJSON, kycJSON, amlJSON, riskJSON []byte
		overall                                string
		finalNotes, finalRecommendation        sql.NullString
	)
	if err := row.Scan(
		&eval.ID,
		&eval.ApplicationID,
		&eval.EvaluatorID,
		&creditJSON,
		&kycJSON,
		&amlJSON,
		&riskJSON,
		&overall,
		&eval.CompletedSteps,
		&finalNotes,
		&finalRecommendation,
		&eval.CreatedAt,
		&eval.UpdatedAt,
	); err != nil {
		return Evaluation{}, err
	}
	if err := json.Unmarshal(creditJSON, &eval.CreditScoring); err != nil {
		return Evaluation{}, fmt.Errorf("decode credit scoring: %w", err)
	}
	if err := json.Unmarshal(kycJSON, &eval.KYC); err != nil {
		return Evaluation{}, fmt.Errorf("decode kyc: %w", err)
	}
	if err := json.Unmarshal(amlJSON, &eval.AML); err != nil {
		return Evaluation{}, fmt.Errorf("decode aml: %w", err)
	}
	if err := json.Unmarshal(riskJSON, &eval.RiskAssessment); err != nil {
		return Evaluation{}, fmt.Errorf("decode risk assessment: %w", err)
	}
	eval.OverallStatus = CheckStatus(overall)
	eval.FinalNotes = finalNotes.String
	eval.FinalRecommendation = finalRecommendation.String
	return eval, nil
}

var _ Repo = (*PGRepo)(nil)
