package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlobal_Validate(t *testing.T) {
	assert.NoError(t, Global{Name: 1, Interface: "wl_shm", Version: 1}.Validate())
	assert.Error(t, Global{Name: 0, Interface: "wl_shm", Version: 1}.Validate(), "name zero")
	assert.Error(t, Global{Name: 1, Interface: "", Version: 1}.Validate(), "no interface")
	assert.Error(t, Global{Name: 1, Interface: "wl_shm", Version: 0}.Validate(), "version zero")
}

func TestInterface(t *testing.T) {
	seat := Interface{Name: "wl_seat", Version: 7}
	assert.NoError(t, seat.Validate())
	assert.Error(t, Interface{Version: 1}.Validate())
	assert.Error(t, Interface{Name: "wl_seat"}.Validate())

	assert.Equal(t, "wl_seat@v7", seat.String())
	assert.Equal(t, uint32(5), seat.Clamp(5))
	assert.Equal(t, uint32(7), seat.Clamp(9))
}

func TestErrorDetail_Error(t *testing.T) {
	var nilDetail *ErrorDetail
	assert.Equal(t, "", nilDetail.Error())

	d := NewErrorDetail("protocol", "bad serial").WithObject(8, "xdg_surface")
	d.Wrapped = NewErrorDetail("internal", "cause")
	assert.Equal(t, "protocol: bad serial [xdg_surface]: cause", d.Error())
	assert.Equal(t, ObjectID(8), d.Object)
}
