// Package transcribe turns uploaded audio into text.
//
// Uploaded bytes are written to a scratch file named recording-<uuid><ext>
// in the Arena directory, because the speech-to-text provider infers the
// audio format from the file name. Every scratch file is released when the
// call returns, whatever the outcome.
package transcribe
