package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "remote with status",
			err:      Remote("fetch likes", 401, stderrors.New("unauthorized")),
			expected: "remote error during fetch likes (status 401): unauthorized",
		},
		{
			name:     "transfer without status",
			err:      Transfer("download", io.ErrUnexpectedEOF),
			expected: "transfer error during download: unexpected EOF",
		},
		{
			name:     "bare kind",
			err:      &Error{Kind: KindFilesystem},
			expected: "filesystem error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestIsKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("run failed: %w", Format("restore", io.EOF))

	assert.True(t, IsKind(err, KindFormat))
	assert.False(t, IsKind(err, KindRemote))
	assert.ErrorIs(t, err, io.EOF)
	assert.False(t, IsKind(stderrors.New("plain"), KindFormat))
}

func TestIsFatal(t *testing.T) {
	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(Format("restore", io.EOF)))
	assert.True(t, IsFatal(Remote("fetch likes", 500, nil)))
	assert.True(t, IsFatal(Filesystem("rename", io.EOF)))
	assert.True(t, IsFatal(stderrors.New("unknown")))
}
