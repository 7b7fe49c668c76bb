package session

import (
	"context"

	"github.com/rs/zerolog/log"
)

// AutoSubmitter turns the buffer of a session that ran out of time into a
// submission.
type AutoSubmitter interface {
	AutoSubmit(ctx context.Context, final FinalState) error
}

// AutoSubmitFunc adapts a function to AutoSubmitter.
type AutoSubmitFunc func(ctx context.Context, final FinalState) error

func (f AutoSubmitFunc) AutoSubmit(ctx context.Context, final FinalState) error {
	return f(ctx, final)
}

// fireAutoSubmit hands the final state of an expired session to submitter.
// The lock is already set; a failure here only loses the synthesized record.
func fireAutoSubmit(ctx context.Context, submitter AutoSubmitter, final FinalState) {
	if submitter == nil {
		return
	}
	logger := log.With().
		Str("session_id", final.Snapshot.SessionID.String()).
		Str("student_id", final.Snapshot.Student.ID).
		Logger()

	if err := submitter.AutoSubmit(ctx, final); err != nil {
		logger.Error().Err(err).Msg("Auto-submit failed")
		return
	}
	logger.Info().Int("code_length", len(final.Code)).Msg("Auto-submitted on contest expiry")
}
