package picturestore_test

import (
	"testing"

	apperrors "github.com/jrsteele09/go-profile-uploader/internal/errors"
	"github.com/jrsteele09/go-profile-uploader/server/picturestore"
	"github.com/stretchr/testify/require"
)

func TestInMemoryPictureRepo(t *testing.T) {
	repo := picturestore.NewInMemoryPictureRepo()

	require.Error(t, repo.Upsert(picturestore.Picture{}))

	data := []byte("jpeg bytes")
	require.NoError(t, repo.Upsert(picturestore.Picture{Name: "a.jpg", ContentType: "image/jpeg", Data: data}))
	data[0] = 'X'

	got, err := repo.Get("a.jpg")
	require.NoError(t, err)
	require.Equal(t, "jpeg bytes", string(got.Data))

	require.NoError(t, repo.Delete("a.jpg"))
	require.NoError(t, repo.Delete("a.jpg"))
	_, err = repo.Get("a.jpg")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
