// Package entities defines the GORM models for speakers, the folder and text
// hierarchy, and the recording lifecycle tables.
//
// Sentence and recording positions are stored in a sentence_index column
// because INDEX is a reserved word in MySQL.
package entities
