package s3_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"docintake/internal/storage/s3"
)

func TestPageKey(t *testing.T) {
	id := uuid.MustParse("6f1c2b9e-1d3a-4c55-9a77-0d2e3f4a5b6c")

	assert.Equal(t, "documents/6f1c2b9e-1d3a-4c55-9a77-0d2e3f4a5b6c/pages/001.png", s3.PageKey(id, 1, "Scan.PNG"))
	assert.Equal(t, "documents/6f1c2b9e-1d3a-4c55-9a77-0d2e3f4a5b6c/pages/012.m4a", s3.PageKey(id, 12, "memo.m4a"))
	assert.Equal(t, "documents/6f1c2b9e-1d3a-4c55-9a77-0d2e3f4a5b6c/pages/002.bin", s3.PageKey(id, 2, "noext"))
}
