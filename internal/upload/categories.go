// Package upload validates, classifies and stores message attachments.
package upload

import (
	"path/filepath"
	"strings"
)

// Attachment categories.
const (
	CategoryImage    = "image"
	CategoryVideo    = "video"
	CategoryAudio    = "audio"
	CategoryDocument = "document"
)

// categories maps each allowed extension to its category.
var categories = map[string]string{
	"png": CategoryImage, "jpg": CategoryImage, "jpeg": CategoryImage,
	"gif": CategoryImage, "webp": CategoryImage, "bmp": CategoryImage,

	"mp4": CategoryVideo, "avi": CategoryVideo, "mov": CategoryVideo,
	"wmv": CategoryVideo, "flv": CategoryVideo, "webm": CategoryVideo,

	"mp3": CategoryAudio, "wav": CategoryAudio, "ogg": CategoryAudio,
	"aac": CategoryAudio, "flac": CategoryAudio,

	"pdf": CategoryDocument, "doc": CategoryDocument, "docx": CategoryDocument,
	"txt": CategoryDocument, "xls": CategoryDocument, "xlsx": CategoryDocument,
	"ppt": CategoryDocument, "pptx": CategoryDocument,
}

// Extension returns the lowercase suffix after the last dot, or "" if there is none.
func Extension(filename string) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}

// IsAllowed reports whether the file's extension is on the allow-list.
func IsAllowed(filename string) bool {
	_, ok := categories[Extension(filename)]
	return ok
}

// Classify returns the category for the file's extension, defaulting to document.
func Classify(filename string) string {
	if c, ok := categories[Extension(filename)]; ok {
		return c
	}
	return CategoryDocument
}
