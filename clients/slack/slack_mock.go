package slack

import (
	"context"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/mock"
)

// MockAPI implements the API interface for testing
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*slack.AuthTestResponse), args.Error(1)
}

func (m *MockAPI) PostMessageContext(
	ctx context.Context,
	channelID string,
	options ...slack.MsgOption,
) (string, string, error) {
	args := m.Called(ctx, channelID, options)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockAPI) PostEphemeralContext(
	ctx context.Context,
	channelID, userID string,
	options ...slack.MsgOption,
) (string, error) {
	args := m.Called(ctx, channelID, userID, options)
	return args.String(0), args.Error(1)
}

func (m *MockAPI) UpdateMessageContext(
	ctx context.Context,
	channelID, timestamp string,
	options ...slack.MsgOption,
) (string, string, string, error) {
	args := m.Called(ctx, channelID, timestamp, options)
	return args.String(0), args.String(1), args.String(2), args.Error(3)
}

func (m *MockAPI) GetUserInfoContext(ctx context.Context, user string) (*slack.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*slack.User), args.Error(1)
}

func (m *MockAPI) GetConversationInfoContext(
	ctx context.Context,
	input *slack.GetConversationInfoInput,
) (*slack.Channel, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*slack.Channel), args.Error(1)
}
