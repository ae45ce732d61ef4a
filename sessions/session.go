package sessions

import (
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/go-profile-uploader/tenants"
)

const (
	keyAccessToken  = "accessToken"
	keyRefreshToken = "refreshToken"
	keyRole         = "role"
)

// Session is the persisted identity record of the logged in device.
// Exactly one tenant profile field is normally populated, matching Role.
// Keys the struct does not model survive a Load/Save round trip untouched.
type Session struct {
	AccessToken  string          // Opaque bearer credential, required for every call
	RefreshToken string          // Opaque, carried through unchanged
	Role         tenants.Type    // Logged in user category
	UserData     json.RawMessage // Customer profile snapshot
	ProviderData json.RawMessage // Provider profile snapshot
	AdminData    json.RawMessage // Admin profile snapshot

	extra  map[string]json.RawMessage
	loaded map[string]json.RawMessage // identity keys exactly as read
}

// Profile returns the cached snapshot for the tenant, nil when none is cached
func (s *Session) Profile(t tenants.Type) (json.RawMessage, error) {
	field, err := s.field(t)
	if err != nil {
		return nil, err
	}
	return *field, nil
}

// SetProfile replaces the tenant's cached snapshot verbatim
func (s *Session) SetProfile(t tenants.Type, snapshot json.RawMessage) error {
	field, err := s.field(t)
	if err != nil {
		return err
	}
	*field = append(json.RawMessage(nil), snapshot...)
	return nil
}

func (s *Session) field(t tenants.Type) (*json.RawMessage, error) {
	route, err := tenants.Lookup(t)
	if err != nil {
		return nil, err
	}
	switch route.SessionField {
	case "userData":
		return &s.UserData, nil
	case "providerData":
		return &s.ProviderData, nil
	case "adminData":
		return &s.AdminData, nil
	}
	return nil, fmt.Errorf("no session field %q", route.SessionField)
}

func (s Session) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(s.extra)+6)
	for k, v := range s.extra {
		out[k] = v
	}
	if err := s.putIdentity(out, keyAccessToken, s.AccessToken); err != nil {
		return nil, err
	}
	if err := s.putIdentity(out, keyRefreshToken, s.RefreshToken); err != nil {
		return nil, err
	}
	if err := s.putIdentity(out, keyRole, string(s.Role)); err != nil {
		return nil, err
	}
	putRaw(out, "userData", s.UserData)
	putRaw(out, "providerData", s.ProviderData)
	putRaw(out, "adminData", s.AdminData)
	return json.Marshal(out)
}

func (s *Session) UnmarshalJSON(data []byte) error {
	var in map[string]json.RawMessage
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in == nil {
		return fmt.Errorf("session is null")
	}

	var role string
	s.loaded = make(map[string]json.RawMessage, 3)
	for key, dst := range map[string]*string{
		keyAccessToken:  &s.AccessToken,
		keyRefreshToken: &s.RefreshToken,
		keyRole:         &role,
	} {
		raw, ok := in[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("session field %s: %w", key, err)
		}
		s.loaded[key] = raw
		delete(in, key)
	}
	s.Role = tenants.Type(role)

	for key, dst := range map[string]*json.RawMessage{
		"userData":     &s.UserData,
		"providerData": &s.ProviderData,
		"adminData":    &s.AdminData,
	} {
		if raw, ok := in[key]; ok {
			*dst = raw
			delete(in, key)
		}
	}

	s.extra = in
	return nil
}

// putIdentity re-emits the stored encoding of key while its value is
// unchanged, so null and empty strings read from disk are written back as is.
func (s Session) putIdentity(m map[string]json.RawMessage, key, value string) error {
	if raw, ok := s.loaded[key]; ok {
		var prev string
		if json.Unmarshal(raw, &prev) == nil && prev == value {
			m[key] = raw
			return nil
		}
	}
	return putString(m, key, value)
}

func putString(m map[string]json.RawMessage, key, value string) error {
	if value == "" {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m[key] = raw
	return nil
}

func putRaw(m map[string]json.RawMessage, key string, value json.RawMessage) {
	if len(value) == 0 {
		return
	}
	m[key] = value
}
