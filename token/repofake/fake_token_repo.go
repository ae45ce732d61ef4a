package tokenfakerepo

import (
	"sync"

	apperrors "github.com/jrsteele09/go-profile-uploader/internal/errors"
	"github.com/jrsteele09/go-profile-uploader/token"
)

var _ token.RefreshTokenRepo = (*FakeTokenRepo)(nil)

type FakeTokenRepo struct {
	tokens  map[string]*token.RefreshToken
	userIDs map[string]string // user ID to token
	lock    sync.RWMutex
}

func NewFakeTokensRepo() token.RefreshTokenRepo {
	return &FakeTokenRepo{
		tokens:  make(map[string]*token.RefreshToken),
		userIDs: make(map[string]string),
	}
}

func (tr *FakeTokenRepo) Upsert(refreshToken *token.RefreshToken) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	tr.tokens[refreshToken.Token] = refreshToken
	tr.userIDs[refreshToken.UserID] = refreshToken.Token
	return nil
}

func (tr *FakeTokenRepo) Delete(tok string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	rt, ok := tr.tokens[tok]
	if !ok {
		return apperrors.ErrNotFound
	}
	if tr.userIDs[rt.UserID] == tok {
		delete(tr.userIDs, rt.UserID)
	}
	delete(tr.tokens, tok)
	return nil
}

func (tr *FakeTokenRepo) Get(tok string) (*token.RefreshToken, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	rt, ok := tr.tokens[tok]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return rt, nil
}

func (tr *FakeTokenRepo) GetByUserID(userID string) (*token.RefreshToken, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	tok, ok := tr.userIDs[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return tr.tokens[tok], nil
}
