package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/comanda/internal/notify"
)

func TestSend_SwallowsErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pub := notify.NewMockPublisher(ctrl)
	pub.EXPECT().
		Publish(gomock.Any(), notify.TopicTableCall, map[string]int{"number": 4}).
		Return(errors.New("broker down"))

	assert.NotPanics(t, func() {
		notify.Send(context.Background(), pub, notify.TopicTableCall, map[string]int{"number": 4})
	})
}

func TestLog_Publish(t *testing.T) {
	assert.NoError(t, notify.Log{}.Publish(context.Background(), notify.TopicOrderCreated, nil))
}
