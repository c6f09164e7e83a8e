package model

import (
	"strings"
	"unicode"
)

// NoteURIPrefix はノートリソースURIのプレフィックス
const NoteURIPrefix = "note:///"

// NoteMimeType はノートリソースのMIMEタイプ
const NoteMimeType = "text/plain"

// Note はテキストノートを表す
// Nameはサニタイズ済みの名前（ファイル名の stem と一致）
type Note struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// SanitizeName はノート名からファイル名に使えない文字を取り除く
// 許容: 英数字（Unicode含む）、スペース、ハイフン、アンダースコア
func SanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NoteURI はノート名からリソースURIを生成する（名前はサニタイズされる）
func NoteURI(name string) string {
	return NoteURIPrefix + SanitizeName(name)
}

// NameFromURI はリソースURIからノート名を取り出す
// プレフィックスが一致しない場合は ok=false
func NameFromURI(uri string) (string, bool) {
	if !strings.HasPrefix(uri, NoteURIPrefix) {
		return "", false
	}
	return strings.TrimPrefix(uri, NoteURIPrefix), true
}

// NoteResource はノート名からリソース宣言を生成する
func NoteResource(name string) Resource {
	return Resource{
		URI:         NoteURI(name),
		Name:        "Note: " + name,
		Description: "A text note named '" + name + "'",
		MimeType:    NoteMimeType,
	}
}
