// Package checkpoint provides durable resumption pointers for long scrapes.
//
// A pointer is a single delimited line holding the cursor of the last
// successfully processed item, overwritten in full after every batch. On
// restart the loop loads the pointer and resumes past it; a missing or
// unreadable pointer file means "start from the beginning of scope".
//
// Pointer files are written atomically (temp file + rename) so a crash
// mid-save never leaves a corrupt pointer behind.
package checkpoint
