package handler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piresc/tirtha/internal/pkg/constants"
	apperrors "github.com/piresc/tirtha/internal/pkg/errors"
	"github.com/piresc/tirtha/internal/pkg/models"
	natspkg "github.com/piresc/tirtha/internal/pkg/nats"
	"github.com/piresc/tirtha/services/tracking/mocks"
)

func deviceSample(t *testing.T, actorID string) []byte {
	t.Helper()
	data, err := json.Marshal(models.DeviceSample{
		ActorID: actorID,
		Profile: models.ActorProfile{GroupID: "g1"},
		Sample:  models.LocationSample{Latitude: 10, Longitude: 77, CapturedAt: 1000},
	})
	require.NoError(t, err)
	return data
}

func TestDeviceSampleHandler_Classification(t *testing.T) {
	tests := []struct {
		name          string
		data          func(t *testing.T) []byte
		ucErr         error
		callsUC       bool
		wantErr       bool
		wantPermanent bool
	}{
		{name: "recorded", data: func(t *testing.T) []byte { return deviceSample(t, "a1") }, callsUC: true},
		{name: "malformed", data: func(*testing.T) []byte { return []byte("{") }, wantErr: true, wantPermanent: true},
		{name: "missing actor", data: func(t *testing.T) []byte { return deviceSample(t, "") }, wantErr: true, wantPermanent: true},
		{name: "invalid sample", data: func(t *testing.T) []byte { return deviceSample(t, "a1") }, callsUC: true,
			ucErr: apperrors.Validation("latitude out of range"), wantErr: true, wantPermanent: true},
		{name: "throttled", data: func(t *testing.T) []byte { return deviceSample(t, "a1") }, callsUC: true,
			ucErr: apperrors.ErrRateLimited, wantErr: true, wantPermanent: true},
		{name: "storage down is retried", data: func(t *testing.T) []byte { return deviceSample(t, "a1") }, callsUC: true,
			ucErr: apperrors.Storage("record", context.DeadlineExceeded), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			uc := mocks.NewMockTrackingUC(ctrl)
			if tt.callsUC {
				uc.EXPECT().RecordSample(gomock.Any(), "a1", models.ActorProfile{GroupID: "g1"}, gomock.Any()).
					Return(&models.RecordResult{}, tt.ucErr)
			}
			h := NewDeviceSampleHandler(uc, nil, nil)

			err := h.handle(context.Background(), tt.data(t))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantPermanent, natspkg.IsPermanent(err))
		})
	}
}

func TestDeviceSampleHandler_ConsumesFromJetStream(t *testing.T) {
	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	s := natsserver.RunServer(&opts)
	defer s.Shutdown()

	client, err := natspkg.NewClient(s.ClientURL())
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, natspkg.EnsureStreams(client))

	ctrl := gomock.NewController(t)
	uc := mocks.NewMockTrackingUC(ctrl)
	got := make(chan string, 1)
	uc.EXPECT().RecordSample(gomock.Any(), "a1", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, actorID string, _ models.ActorProfile, _ models.LocationSample) (*models.RecordResult, error) {
			got <- actorID
			return &models.RecordResult{}, nil
		})

	h := NewDeviceSampleHandler(uc, client, nil)
	require.NoError(t, h.InitNATSConsumers())
	require.NoError(t, client.PublishWithOptions(natspkg.PublishOptions{
		Subject: constants.SubjectDeviceSample,
		Data:    deviceSample(t, "a1"),
		MsgID:   "a1-1000",
	}))

	select {
	case actorID := <-got:
		assert.Equal(t, "a1", actorID)
	case <-time.After(5 * time.Second):
		t.Fatal(errors.New("device sample not consumed"))
	}
}
