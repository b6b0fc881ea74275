package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObject struct {
	method string
	args   []any
	reply  *dbus.Call
}

func (f *fakeObject) CallWithContext(_ context.Context, method string, _ dbus.Flags, args ...any) *dbus.Call {
	f.method = method
	f.args = args
	return f.reply
}

func TestClient_Notify(t *testing.T) {
	obj := &fakeObject{reply: &dbus.Call{Body: []any{uint32(12)}}}
	c := newClient("deskbridge", obj)

	id, err := c.Notify(context.Background(), Notification{
		Summary: "Build finished",
		Body:    "All green",
		Icon:    "dialog-information",
		URL:     "http://localhost/report",
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(12), id)

	assert.Equal(t, "org.freedesktop.Notifications.Notify", obj.method)
	require.Len(t, obj.args, 8)
	assert.Equal(t, "deskbridge", obj.args[0])
	assert.Equal(t, uint32(0), obj.args[1])
	assert.Equal(t, "dialog-information", obj.args[2])
	assert.Equal(t, "Build finished", obj.args[3])
	assert.Equal(t, "All green", obj.args[4])
	hints := obj.args[6].(map[string]dbus.Variant)
	assert.Equal(t, "http://localhost/report", hints["x-deskbridge-url"].Value())
	assert.Equal(t, int32(-1), obj.args[7])
}

func TestClient_NotifyError(t *testing.T) {
	obj := &fakeObject{reply: &dbus.Call{Err: errors.New("ServiceUnknown")}}
	_, err := newClient("deskbridge", obj).Notify(context.Background(), Notification{Summary: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ServiceUnknown")
}

func TestClient_CloseWithoutConn(t *testing.T) {
	assert.NoError(t, newClient("deskbridge", &fakeObject{}).Close())
}
