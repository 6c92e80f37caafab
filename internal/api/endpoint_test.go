package api

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/angristan/bulby/internal/discovery"
)

type MockDiscoverer struct {
	mock.Mock
}

func (m *MockDiscoverer) Discover(ctx context.Context, searchTarget string) ([]discovery.Response, error) {
	args := m.Called(ctx, searchTarget)
	return args.Get(0).([]discovery.Response), args.Error(1)
}

func TestResolveEndpoint_Explicit(t *testing.T) {
	tests := []struct {
		name string
		opts EndpointOptions
		want string
	}{
		{"defaults", EndpointOptions{Address: "192.168.1.1"}, "http://192.168.1.1:80"},
		{"custom port", EndpointOptions{Address: "192.168.1.1", Port: 1337}, "http://192.168.1.1:1337"},
		{"https", EndpointOptions{Address: "192.168.1.1", Port: 443, Scheme: "https"}, "https://192.168.1.1:443"},
		{"https default port", EndpointOptions{Address: "192.168.1.1", Scheme: "https"}, "https://192.168.1.1:443"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := new(MockDiscoverer)

			ep, err := ResolveEndpoint(context.Background(), tt.opts, d)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ep.BaseURL())
			assert.Equal(t, "192.168.1.1", ep.Host)

			d.AssertNotCalled(t, "Discover", mock.Anything, mock.Anything)
		})
	}
}

func TestResolveEndpoint_SingleBridge(t *testing.T) {
	d := new(MockDiscoverer)
	d.On("Discover", mock.Anything, "IpBridge").Return([]discovery.Response{
		{Location: "http://192.168.1.1:80/description.xml"},
	}, nil).Once()

	ep, err := ResolveEndpoint(context.Background(), EndpointOptions{}, d)
	require.NoError(t, err)

	assert.Equal(t, Endpoint{Scheme: "http", Host: "192.168.1.1", Port: 80}, ep)
	assert.Equal(t, "http://192.168.1.1:80", ep.BaseURL())
	d.AssertExpectations(t)
}

func TestResolveEndpoint_LocationWithoutPort(t *testing.T) {
	d := new(MockDiscoverer)
	d.On("Discover", mock.Anything, "IpBridge").Return([]discovery.Response{
		{Location: "https://10.0.0.7/description.xml"},
	}, nil)

	ep, err := ResolveEndpoint(context.Background(), EndpointOptions{}, d)
	require.NoError(t, err)
	assert.Equal(t, "https://10.0.0.7:443", ep.BaseURL())
}

func TestResolveEndpoint_CustomSearchTarget(t *testing.T) {
	d := new(MockDiscoverer)
	d.On("Discover", mock.Anything, "upnp:rootdevice").Return([]discovery.Response{
		{Location: "http://192.168.1.4:8080/description.xml"},
	}, nil)

	ep, err := ResolveEndpoint(context.Background(), EndpointOptions{SearchTarget: "upnp:rootdevice"}, d)
	require.NoError(t, err)
	assert.Equal(t, 8080, ep.Port)
	d.AssertExpectations(t)
}

func TestResolveEndpoint_MultipleBridges(t *testing.T) {
	d := new(MockDiscoverer)
	d.On("Discover", mock.Anything, "IpBridge").Return([]discovery.Response{
		{Location: "http://192.168.1.1:80/description.xml"},
		{Location: "http://192.168.1.2:80/description.xml"},
	}, nil).Once()

	_, err := ResolveEndpoint(context.Background(), EndpointOptions{}, d)
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrMultipleBridges)
	assert.Contains(t, err.Error(), "http://192.168.1.1:80/description.xml")
	assert.Contains(t, err.Error(), "http://192.168.1.2:80/description.xml")

	var ambiguous *AmbiguousBridgesError
	require.ErrorAs(t, err, &ambiguous)
	assert.Len(t, ambiguous.Locations, 2)
	d.AssertNumberOfCalls(t, "Discover", 1)
}

func TestResolveEndpoint_NoBridges(t *testing.T) {
	d := new(MockDiscoverer)
	d.On("Discover", mock.Anything, "IpBridge").Return([]discovery.Response{}, nil).Once()

	_, err := ResolveEndpoint(context.Background(), EndpointOptions{}, d)
	assert.ErrorIs(t, err, ErrNoBridges)
	assert.Equal(t, "no bridges found", err.Error())
	d.AssertNumberOfCalls(t, "Discover", 1)
}

func TestResolveEndpoint_DiscoveryFailure(t *testing.T) {
	boom := errors.New("socket closed")
	d := new(MockDiscoverer)
	d.On("Discover", mock.Anything, "IpBridge").Return([]discovery.Response(nil), boom)

	_, err := ResolveEndpoint(context.Background(), EndpointOptions{}, d)
	assert.ErrorIs(t, err, boom)
}

func TestResolveEndpoint_BadLocation(t *testing.T) {
	d := new(MockDiscoverer)
	d.On("Discover", mock.Anything, "IpBridge").Return([]discovery.Response{
		{Location: "/description.xml"},
	}, nil)

	_, err := ResolveEndpoint(context.Background(), EndpointOptions{}, d)
	assert.Error(t, err)
}
