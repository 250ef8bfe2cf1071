package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
)

// エンティティIDは24文字の16進文字列です。
var idPattern = regexp.MustCompile(`^[0-9a-f]{24}$`)

// NewID は新しいエンティティIDを生成します。
func NewID() (string, error) {
	bytes := make([]byte, 12)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("could not generate id: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// IsValidID はIDの形式を検証します。検索の前に必ず呼び出してください。
func IsValidID(id string) bool {
	return idPattern.MatchString(id)
}
