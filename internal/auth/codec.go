package auth

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// IdentityCodec сериализует Identity в значение cookie и обратно.
type IdentityCodec interface {
	Encode(id Identity) (string, error)
	// Decode возвращает ErrMalformedIdentity (обёрнутую) для любого
	// значения, которое не удалось разобрать или проверить.
	Decode(raw string) (Identity, error)
}

// JSONCodec — исходный формат сайта: JSON без подписи.
// Значение экранируется как сегмент пути, чтобы оставаться допустимым cookie.
type JSONCodec struct{}

// Encode implements IdentityCodec.
func (JSONCodec) Encode(id Identity) (string, error) {
	data, err := json.Marshal(id)
	if err != nil {
		return "", err
	}
	return url.PathEscape(string(data)), nil
}

// Decode implements IdentityCodec.
func (JSONCodec) Decode(raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, fmt.Errorf("%w: empty value", ErrMalformedIdentity)
	}

	text := raw
	if !strings.HasPrefix(raw, "{") {
		unescaped, err := url.PathUnescape(raw)
		if err != nil {
			return Identity{}, fmt.Errorf("%w: %v", ErrMalformedIdentity, err)
		}
		text = unescaped
	}

	var id Identity
	if err := json.Unmarshal([]byte(text), &id); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrMalformedIdentity, err)
	}
	if err := id.Validate(); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrMalformedIdentity, err)
	}
	return id, nil
}

// ParseIdentity декодирует cookie и сворачивает любую ошибку в "сессии нет".
func ParseIdentity(codec IdentityCodec, raw string) (*Identity, bool) {
	if raw == "" {
		return nil, false
	}
	id, err := codec.Decode(raw)
	if err != nil {
		return nil, false
	}
	return &id, true
}
