package transcriber

import "context"

// DispatchRequest asks a provider to transcribe one audio recording. The
// provider does not return the transcript; it posts the result to the
// webhook endpoint configured on the client, keyed by AnswerID.
type DispatchRequest struct {
	// AudioURL must be resolvable by the provider.
	AudioURL string
	// AnswerID is the correlation key echoed back in the callback.
	AnswerID string
	// Language overrides the client's default target language when set.
	Language string
}

// DispatchAck is the provider's immediate acknowledgment.
type DispatchAck struct {
	RequestID string
}

type Transcriber interface {
	Dispatch(ctx context.Context, req DispatchRequest) (*DispatchAck, error)
}
