package sentiment

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testServiceURL = "http://sentiment.test"

func TestRemote_Score(t *testing.T) {
	defer gock.Off()

	gock.New(testServiceURL).
		Post("/analyze").
		MatchType("json").
		JSON(map[string]string{"text": "Un libro maravilloso"}).
		Reply(http.StatusOK).
		JSON(map[string]int{"score": 4})

	r, err := NewRemote(testServiceURL, time.Second)
	require.NoError(t, err)

	got, err := r.Score(context.Background(), "Un libro maravilloso")
	require.NoError(t, err)
	assert.Equal(t, 4, got)
	assert.True(t, gock.IsDone(), "pending mocks left")
}

func TestRemote_ScoreBasePath(t *testing.T) {
	defer gock.Off()

	gock.New(testServiceURL).
		Post("/v1/analyze").
		Reply(http.StatusOK).
		JSON(map[string]int{"score": -2})

	r, err := NewRemote(testServiceURL+"/v1", time.Second)
	require.NoError(t, err)

	got, err := r.Score(context.Background(), "flojo")
	require.NoError(t, err)
	assert.Equal(t, -2, got)
}

func TestRemote_ScoreErrors(t *testing.T) {
	tests := []struct {
		name    string
		mock    func()
		wantErr error
	}{
		{
			name: "unexpected status",
			mock: func() {
				gock.New(testServiceURL).Post("/analyze").Reply(http.StatusInternalServerError)
			},
			wantErr: ErrUnexpectedStatus,
		},
		{
			name: "missing score",
			mock: func() {
				gock.New(testServiceURL).Post("/analyze").Reply(http.StatusOK).JSON(map[string]string{})
			},
		},
		{
			name: "invalid body",
			mock: func() {
				gock.New(testServiceURL).Post("/analyze").Reply(http.StatusOK).BodyString("not json")
			},
		},
		{
			name: "transport error",
			mock: func() {
				gock.New(testServiceURL).Post("/analyze").ReplyError(errors.New("connection refused"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer gock.Off()
			tt.mock()

			r, err := NewRemote(testServiceURL, time.Second)
			require.NoError(t, err)

			_, err = r.Score(context.Background(), "texto")
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestNewRemoteInvalidURL(t *testing.T) {
	for _, u := range []string{"", "sentiment.test", "://bad"} {
		_, err := NewRemote(u, time.Second)
		assert.Error(t, err, "url %q", u)
	}
}
