package escpos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsStatusByte(t *testing.T) {
	assert.True(t, isStatusByte(0x12))
	assert.True(t, isStatusByte(0x16))
	assert.True(t, isStatusByte(0x7E))
	assert.False(t, isStatusByte(0x00))
	assert.False(t, isStatusByte(0x13))
	assert.False(t, isStatusByte(0x92))
}

func TestParseStatusHealthy(t *testing.T) {
	status := parseStatus(statusReply{printer: 0x12, offline: 0x12, errors: 0x12, paper: 0x12})

	assert.False(t, status.HasError)
	assert.False(t, status.CoverOpen)
	assert.False(t, status.PaperEmpty)
	assert.False(t, status.PaperNearEmpty)
	require.NotNil(t, status.Detail.PaperPresent)
	assert.True(t, *status.Detail.PaperPresent)
	require.NotNil(t, status.Detail.CutterError)
	assert.False(t, *status.Detail.CutterError)
	assert.Nil(t, status.Detail.CleaningNotification)
	assert.Nil(t, status.Detail.Drawer1OpenedMethod)
}

func TestParseStatusFlags(t *testing.T) {
	tests := []struct {
		name  string
		reply statusReply
		check func(t *testing.T, r statusReply)
	}{
		{"drawer signal", statusReply{printer: 0x16}, func(t *testing.T, r statusReply) {
			s := parseStatus(r)
			assert.True(t, s.DrawerOpenCloseSignal)
			assert.True(t, *s.Detail.Drawer1OpenCloseSignal)
			assert.False(t, s.HasError)
		}},
		{"cover open", statusReply{printer: 0x12, offline: 0x16}, func(t *testing.T, r statusReply) {
			s := parseStatus(r)
			assert.True(t, s.CoverOpen)
			assert.True(t, *s.Detail.PrintUnitOpen)
			assert.True(t, s.HasError)
		}},
		{"paper end", statusReply{printer: 0x12, offline: 0x32, paper: 0x72}, func(t *testing.T, r statusReply) {
			s := parseStatus(r)
			assert.True(t, s.PaperEmpty)
			assert.False(t, *s.Detail.PaperPresent)
			assert.True(t, s.HasError)
		}},
		{"paper near end", statusReply{printer: 0x12, paper: 0x1E}, func(t *testing.T, r statusReply) {
			s := parseStatus(r)
			assert.True(t, s.PaperNearEmpty)
			assert.False(t, s.PaperEmpty)
			assert.False(t, s.HasError)
		}},
		{"cutter error", statusReply{printer: 0x12, errors: 0x1A}, func(t *testing.T, r statusReply) {
			s := parseStatus(r)
			assert.True(t, *s.Detail.CutterError)
			assert.True(t, s.HasError)
		}},
		{"only printer reply", statusReply{printer: 0x12}, func(t *testing.T, r statusReply) {
			s := parseStatus(r)
			assert.Nil(t, s.Detail.PaperPresent)
			assert.Nil(t, s.Detail.CutterError)
			assert.Equal(t, []int{0x12, 0, 0, 0}, s.Reserved["raw"])
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, tt.reply)
		})
	}
}
