package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/FloraFacts/internal/client/session"
	"github.com/atinyakov/FloraFacts/internal/models"
)

func TestOpen_FileNotExist(t *testing.T) {
	ls, err := Open(filepath.Join(t.TempDir(), "missing", stateFile))
	require.NoError(t, err)
	assert.Equal(t, State{}, ls.State())
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", stateFile)
	ls, err := Open(path)
	require.NoError(t, err)

	ls.SetServer("https://localhost:8080", "ca.crt")
	ls.SetToken("tok")
	res := &session.Result{
		Image:        "data:image/jpeg;base64,AA==",
		Info:         models.PlantInfo{Name: "Fern", ScientificName: "Nephrolepis exaltata"},
		Raw:          `{"name":"Fern"}`,
		IdentifiedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	ls.SetLastResult(res)
	require.NoError(t, ls.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Open(path)
	require.NoError(t, err)
	st := again.State()
	assert.Equal(t, "https://localhost:8080", st.Server)
	assert.Equal(t, "ca.crt", st.CAFile)
	assert.Equal(t, "tok", st.Token)
	require.NotNil(t, st.LastResult)
	assert.Equal(t, "Fern", st.LastResult.Info.Name)
	assert.True(t, res.IdentifiedAt.Equal(st.LastResult.IdentifiedAt))
}

func TestSetToken_DropsLastResultOnIdentityChange(t *testing.T) {
	ls, err := Open(filepath.Join(t.TempDir(), stateFile))
	require.NoError(t, err)

	ls.SetToken("alice")
	ls.SetLastResult(&session.Result{Raw: "x"})

	ls.SetToken("alice")
	assert.NotNil(t, ls.State().LastResult, "same token keeps the result")

	ls.SetToken("")
	assert.Nil(t, ls.State().LastResult)
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), stateFile)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Open(path)
	assert.ErrorContains(t, err, "decode state")
}
