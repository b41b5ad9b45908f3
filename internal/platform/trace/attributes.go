package trace

// Span attribute keys for summary requests.
const (
	SessionID        = "summary.session_id"
	VideoID          = "summary.video_id"
	Seq              = "summary.seq"
	Outcome          = "summary.outcome"
	SegmentCount     = "summary.segments"
	TracerTranscript = "allat.local/transcript"
)
