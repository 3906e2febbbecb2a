package tools

import (
	"context"
	"errors"
	"testing"

	"mentorloop-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func voiceNoteFixture(store BlobStore) *VoiceNoteTool {
	assets := map[string]string{
		"phase1:encouragement": "voice-notes/phase1/encouragement.mp3",
		"phase2:milestone":     "voice-notes/phase2/milestone.mp3",
	}
	return NewVoiceNoteTool(config.MinIOConfig{BucketName: "mentorloop"}, assets, store)
}

func TestVoiceNoteReturnsAssetLink(t *testing.T) {
	store := newBlobStoreStub()
	tool := voiceNoteFixture(store)

	result := tool.Execute(context.Background(), toolCtx, map[string]interface{}{"note_type": "encouragement"})

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "voice-notes/phase1/encouragement.mp3", result.Data["storagePath"])
	assert.Equal(t, "https://blob.test/voice-notes/phase1/encouragement.mp3", result.Data["url"])
	assert.Equal(t, "audio/mpeg", result.Data["mimeType"])
	assert.Equal(t, []string{"voice-notes/phase1/encouragement.mp3"}, store.statted)
}

func TestVoiceNoteUnknownTypeIsNotFoundWithoutStorageCall(t *testing.T) {
	store := newBlobStoreStub()
	tool := voiceNoteFixture(store)

	result := tool.Execute(context.Background(), toolCtx, map[string]interface{}{"note_type": "celebration"})

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "NotFound")
	assert.Contains(t, result.Error, "celebration")
	assert.Empty(t, store.statted)
}

func TestVoiceNoteMissingObjectIsNotFoundNotBrokenLink(t *testing.T) {
	store := newBlobStoreStub()
	store.statErr = errors.New("The specified key does not exist")
	tool := voiceNoteFixture(store)

	result := tool.Execute(context.Background(), toolCtx, map[string]interface{}{"note_type": "encouragement"})

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "NotFound")
	assert.Contains(t, result.Error, "voice-notes/phase1/encouragement.mp3")
	assert.Nil(t, result.Data)
}

func TestVoiceNotePresignFailureIsExplicit(t *testing.T) {
	store := newBlobStoreStub()
	store.presignErr = errors.New("connection refused")
	tool := voiceNoteFixture(store)

	result := tool.Execute(context.Background(), toolCtx, map[string]interface{}{"note_type": "encouragement"})

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "生成语音条链接失败")
}
