package types

// TranscriptSegment is one timestamped span of spoken text from the A-roll.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func (s TranscriptSegment) Duration() float64 { return s.End - s.Start }

// ClipDescriptor identifies a B-roll clip and its semantic description.
type ClipDescriptor struct {
	ClipName    string `json:"clip_name"`
	Description string `json:"description"`
}

// BrollClip is a catalog entry: a described clip plus its precomputed
// description embedding. Embedding may be nil, in which case the matcher
// embeds the description on demand.
type BrollClip struct {
	Descriptor ClipDescriptor
	Embedding  []float64
}

// MatchResult is the outcome of matching one transcript segment against the
// catalog. Clip is nil when nothing cleared the threshold; Score still holds
// the best score seen, so "no clip" and "score" stay independently readable.
type MatchResult struct {
	Clip   *ClipDescriptor
	Score  float64
	Reason string
}

// EditDecision is a single B-roll insertion instruction. Immutable once
// appended to an EDL.
type EditDecision struct {
	StartTime       float64 `json:"start_time"`
	Duration        float64 `json:"duration"`
	BrollClip       string  `json:"b_roll_clip"`
	Reason          string  `json:"reason"`
	TranscriptText  string  `json:"transcript_text"`
	SimilarityScore float64 `json:"similarity_score"`
}

// EDLMetadata travels with the EDL so a consumer can audit why a given
// segment was or wasn't edited.
type EDLMetadata struct {
	TotalSegments       int     `json:"total_segments"`
	TotalBrollClips     int     `json:"total_broll_clips"`
	EditsApplied        int     `json:"edits_applied"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	MinGapSeconds       float64 `json:"min_gap_seconds"`
}

// EDL is the Edit Decision List: edits ordered by start time, non-overlapping
// by construction.
type EDL struct {
	Metadata EDLMetadata    `json:"metadata"`
	Edits    []EditDecision `json:"edits"`
}
