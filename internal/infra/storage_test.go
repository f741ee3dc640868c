package infra

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_CopyAndDeleteFolder(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	company := uuid.New()
	src := RecordFolder(company, "quote", "DEV-0001") + "/plan.pdf"
	dstFolder := RecordFolder(company, "invoice", "FAC-0001")
	require.NoError(t, s.Put(ctx, src, strings.NewReader("plan")))

	require.NoError(t, s.Copy(ctx, src, dstFolder+"/plan.pdf"))

	rc, err := s.Open(ctx, dstFolder+"/plan.pdf")
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "plan", string(body))

	require.NoError(t, s.DeleteFolder(ctx, dstFolder))
	_, err = s.Open(ctx, dstFolder+"/plan.pdf")
	assert.ErrorIs(t, err, ErrFileNotFound)

	// source untouched
	_, err = s.Open(ctx, src)
	assert.NoError(t, err)
}

func TestLocalStorage_KeysStayInsideRoot(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "../../escape.txt", strings.NewReader("x")))
	rc, err := s.Open(ctx, "escape.txt")
	require.NoError(t, err)
	rc.Close()
}

func TestRecordFolder_SanitizesReference(t *testing.T) {
	id := uuid.MustParse("7d8f0c59-5a31-4a53-9f0d-2d7f4a1c2b10")
	assert.Equal(t, "company/"+id.String()+"/invoice/FAC-2024-01", RecordFolder(id, "invoice", "FAC/2024/01"))
}
