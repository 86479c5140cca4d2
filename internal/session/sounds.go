package session

// Controller prompts and notifications from the SFX directory.
const (
	SoundError      = "error"
	SoundLangSelect = "lang-select"
	SoundPostOK     = "post-ok"
)

// ErrorSound returns the error notification for a language code, or the
// neutral one when lang is empty.
func ErrorSound(lang string) File {
	if lang == "" {
		return SFXFile(SoundError)
	}
	return SFXFile(SoundError + "-" + lang)
}
