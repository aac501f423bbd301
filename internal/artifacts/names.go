package artifacts

import "fmt"

// SentenceAudioName is the blob holding the current audio of one sentence recording
func SentenceAudioName(recordingID uint, index int) string {
	return fmt.Sprintf("sentences/%d/%04d.wav", recordingID, index)
}

// RecordingAudioName is the concatenated audio of a finished text recording
func RecordingAudioName(textID uint, username string) string {
	return fmt.Sprintf("texts/%d/%s_%d.wav", textID, username, textID)
}

// TranscriptName is the alignment file of a finished text recording
func TranscriptName(textID uint, username string) string {
	return fmt.Sprintf("texts/%d/%s_%d.txt", textID, username, textID)
}

// FolderTranscriptName merges the transcripts of every finished recording in a folder
func FolderTranscriptName(folderID uint) string {
	return fmt.Sprintf("folders/%d/transcript.txt", folderID)
}

// ContributorLogName lists the speakers who finished a recording in a folder
func ContributorLogName(folderID uint) string {
	return fmt.Sprintf("folders/%d/speakers.csv", folderID)
}
