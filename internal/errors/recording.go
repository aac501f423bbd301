package errors

// Constructors for recording lifecycle failures. Each returns an *EnhancedError so
// callers can branch with IsCategory regardless of how deeply the error was wrapped.

// OutOfOrder reports a submission whose index is not the active sentence.
func OutOfOrder(recordingID uint, index, active int) *EnhancedError {
	return Newf("sentence index %d is not the active sentence %d", index, active).
		Component("recording").
		Category(CategoryOutOfOrder).
		Context("recording_id", recordingID).
		Context("index", index).
		Context("active", active).
		Build()
}

// AlreadyFinished reports a submission against a recording that covers every sentence.
func AlreadyFinished(recordingID uint) *EnhancedError {
	return Newf("text recording %d is already finished", recordingID).
		Component("recording").
		Category(CategoryAlreadyFinished).
		Context("recording_id", recordingID).
		Build()
}

// Duplicate reports an existing sentence recording at the submitted index.
func Duplicate(recordingID uint, index int) *EnhancedError {
	return Newf("sentence %d of text recording %d already recorded", index, recordingID).
		Component("recording").
		Category(CategoryDuplicate).
		Context("recording_id", recordingID).
		Context("index", index).
		Build()
}

// Integrity reports a sentence that belongs to a different text than its recording.
func Integrity(recordingID, sentenceID, recordingTextID, sentenceTextID uint) *EnhancedError {
	return Newf("sentence %d belongs to text %d, recording %d is for text %d",
		sentenceID, sentenceTextID, recordingID, recordingTextID).
		Component("recording").
		Category(CategoryIntegrity).
		Context("recording_id", recordingID).
		Context("sentence_id", sentenceID).
		Build()
}

// Decode wraps a failure to decode submitted audio.
func Decode(err error) *EnhancedError {
	return New(err).
		Component("myaudio").
		Category(CategoryDecode).
		Build()
}

// Regeneration wraps a failure to rebuild concatenated audio or transcripts.
func Regeneration(err error, recordingID uint) *EnhancedError {
	return New(err).
		Component("transcript").
		Category(CategoryRegeneration).
		Context("recording_id", recordingID).
		Build()
}
