package tasks

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPDFExportTask(t *testing.T) {
	task, err := NewPDFExportTask(PDFExportPayload{
		TaskID:    "t1",
		SessionID: "s1",
		Version:   7,
		Resume:    json.RawMessage(`{"personal":{"name":"Ann"}}`),
	})
	require.NoError(t, err)
	assert.Equal(t, TypePDFExport, task.Type())

	var back PDFExportPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &back))
	assert.Equal(t, "s1", back.SessionID)
	assert.Equal(t, uint64(7), back.Version)
	assert.JSONEq(t, `{"personal":{"name":"Ann"}}`, string(back.Resume))
}
