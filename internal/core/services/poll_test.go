package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rfdetr-toolkit/internal/core/domain"
	"rfdetr-toolkit/internal/testutil"
)

func TestWaitForVersion_ReturnsWhenGenerated(t *testing.T) {
	platform := new(testutil.MockPlatformClient)
	ref, err := domain.NewVersionRef("ws", "p", 4)
	require.NoError(t, err)

	platform.On("GetVersion", mock.Anything, ref).Return(&domain.VersionStatus{Generating: true, Progress: 0.5}, nil).Twice()
	platform.On("GetVersion", mock.Anything, ref).Return(&domain.VersionStatus{Images: 12}, nil).Once()

	status, err := WaitForVersion(context.Background(), platform, ref, fastPoll)
	require.NoError(t, err)
	assert.Equal(t, 12, status.Images)
	platform.AssertNumberOfCalls(t, "GetVersion", 3)
}

func TestWaitForVersion_Timeout(t *testing.T) {
	platform := new(testutil.MockPlatformClient)
	ref, _ := domain.NewVersionRef("ws", "p", 4)
	platform.On("GetVersion", mock.Anything, ref).Return(&domain.VersionStatus{Generating: true}, nil)

	_, err := WaitForVersion(context.Background(), platform, ref, PollConfig{Interval: time.Millisecond, Timeout: 10 * time.Millisecond})
	assert.ErrorIs(t, err, domain.ErrVersionNotReady)
}

func TestWaitForVersion_ParentCancelled(t *testing.T) {
	platform := new(testutil.MockPlatformClient)
	ref, _ := domain.NewVersionRef("ws", "p", 4)
	platform.On("GetVersion", mock.Anything, ref).Return(&domain.VersionStatus{Generating: true}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	_, err := WaitForVersion(ctx, platform, ref, PollConfig{Interval: time.Millisecond, Timeout: time.Minute})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrVersionNotReady)
}

func TestWaitForVersion_StatusError(t *testing.T) {
	platform := new(testutil.MockPlatformClient)
	ref, _ := domain.NewVersionRef("ws", "p", 4)
	boom := errors.New("boom")
	platform.On("GetVersion", mock.Anything, ref).Return(nil, boom)

	_, err := WaitForVersion(context.Background(), platform, ref, fastPoll)
	assert.ErrorIs(t, err, boom)
	platform.AssertNumberOfCalls(t, "GetVersion", 1)
}

func TestWaitForVersion_ChecksImmediately(t *testing.T) {
	platform := new(testutil.MockPlatformClient)
	ref, _ := domain.NewVersionRef("ws", "p", 4)
	platform.On("GetVersion", mock.Anything, ref).Return(&domain.VersionStatus{Images: 3}, nil).Once()

	start := time.Now()
	status, err := WaitForVersion(context.Background(), platform, ref, PollConfig{Interval: time.Hour, Timeout: 2 * time.Hour})
	require.NoError(t, err)
	assert.Equal(t, 3, status.Images)
	assert.Less(t, time.Since(start), time.Minute)
}

func TestWaitForVersion_DeadlineDuringCheck(t *testing.T) {
	platform := new(testutil.MockPlatformClient)
	ref, _ := domain.NewVersionRef("ws", "p", 4)
	platform.On("GetVersion", mock.Anything, ref).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded)

	_, err := WaitForVersion(context.Background(), platform, ref, PollConfig{Interval: time.Millisecond, Timeout: 10 * time.Millisecond})
	assert.ErrorIs(t, err, domain.ErrVersionNotReady)
}
