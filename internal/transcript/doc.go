// Package transcript rebuilds the derived artifacts of finished text
// recordings: the concatenated audio, the alignment transcript, the folder
// transcript that merges every finished recording of a folder, and the
// folder's contributor log.
//
// Artifacts are always rebuilt wholesale from the ordered sentence
// recordings. A rebuild stages new blobs under temporary names and only swaps
// them in once all of them are complete; the returned Pending keeps the
// previous versions until the caller commits or rolls back.
package transcript
