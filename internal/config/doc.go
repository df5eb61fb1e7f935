// Package config holds the process-wide configuration of inboxpal.
//
// A Config is assembled in cmd from flags with environment fallbacks,
// validated once, and then passed by reference to the components that
// need it. The Google client secret and the OpenAI API key are loaded here
// and nowhere else.
package config
