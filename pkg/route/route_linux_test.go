//go:build linux

package route

import (
	"errors"
	"net"
	"net/netip"
	"testing"

	"github.com/jsimonetti/rtnetlink"
	"golang.org/x/sys/unix"
)

func stubInterfaces(t *testing.T, ifs map[int]*net.Interface) {
	t.Helper()
	orig := interfaceByIndex
	interfaceByIndex = func(i int) (*net.Interface, error) {
		if intf, ok := ifs[i]; ok {
			return intf, nil
		}
		return nil, errors.New("no such network interface")
	}
	t.Cleanup(func() { interfaceByIndex = orig })
}

func TestFromMessages(t *testing.T) {
	dst := netip.MustParseAddr("198.51.100.7")
	gw := netip.MustParseAddr("192.0.2.1")
	src := netip.MustParseAddr("192.0.2.10")

	stubInterfaces(t, map[int]*net.Interface{
		2: {Index: 2, Name: "eth0", Flags: net.FlagUp},
		3: {Index: 3, Name: "eth1"},
	})

	unicast := func(attrs rtnetlink.RouteAttributes) rtnetlink.RouteMessage {
		return rtnetlink.RouteMessage{Family: unix.AF_INET, Type: unix.RTN_UNICAST, Attributes: attrs}
	}

	tests := []struct {
		name    string
		msgs    []rtnetlink.RouteMessage
		want    Route
		wantErr error
		anyErr  bool
	}{
		{
			name: "via gateway",
			msgs: []rtnetlink.RouteMessage{unicast(rtnetlink.RouteAttributes{
				Dst: dst.AsSlice(), Gateway: gw.AsSlice(), Src: src.AsSlice(), OutIface: 2,
			})},
			want: Route{Destination: dst, Gateway: gw, Source: src},
		},
		{
			name: "on link",
			msgs: []rtnetlink.RouteMessage{unicast(rtnetlink.RouteAttributes{
				Dst: dst.AsSlice(), Src: src.AsSlice(), OutIface: 2,
			})},
			want: Route{Destination: dst, Source: src},
		},
		{
			name:    "no messages",
			wantErr: ErrNoRoute,
		},
		{
			name: "unreachable route",
			msgs: []rtnetlink.RouteMessage{{
				Family: unix.AF_INET, Type: unix.RTN_UNREACHABLE,
				Attributes: rtnetlink.RouteAttributes{Dst: dst.AsSlice(), Src: src.AsSlice(), OutIface: 2},
			}},
			wantErr: ErrNoRoute,
		},
		{
			name: "multiple routes",
			msgs: []rtnetlink.RouteMessage{
				unicast(rtnetlink.RouteAttributes{Dst: dst.AsSlice(), Src: src.AsSlice(), OutIface: 2}),
				unicast(rtnetlink.RouteAttributes{Dst: dst.AsSlice(), Src: src.AsSlice(), OutIface: 3}),
			},
			anyErr: true,
		},
		{
			name:   "invalid destination",
			msgs:   []rtnetlink.RouteMessage{unicast(rtnetlink.RouteAttributes{Dst: []byte{}, Src: src.AsSlice(), OutIface: 2})},
			anyErr: true,
		},
		{
			name:   "missing source",
			msgs:   []rtnetlink.RouteMessage{unicast(rtnetlink.RouteAttributes{Dst: dst.AsSlice(), OutIface: 2})},
			anyErr: true,
		},
		{
			name:   "interface down",
			msgs:   []rtnetlink.RouteMessage{unicast(rtnetlink.RouteAttributes{Dst: dst.AsSlice(), Src: src.AsSlice(), OutIface: 3})},
			anyErr: true,
		},
		{
			name:   "unknown interface",
			msgs:   []rtnetlink.RouteMessage{unicast(rtnetlink.RouteAttributes{Dst: dst.AsSlice(), Src: src.AsSlice(), OutIface: 9})},
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fromMessages(dst, tt.msgs)

			if tt.wantErr != nil || tt.anyErr {
				if err == nil {
					t.Fatalf("fromMessages() = %+v, want error", got)
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Errorf("fromMessages() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("fromMessages() unexpected error: %v", err)
			}
			if got.Destination != tt.want.Destination || got.Gateway != tt.want.Gateway || got.Source != tt.want.Source {
				t.Errorf("fromMessages() = %+v, want %+v", got, tt.want)
			}
			if got.Interface == nil || got.Interface.Name != "eth0" {
				t.Errorf("fromMessages() interface = %v, want eth0", got.Interface)
			}
		})
	}
}

func Test_get_Linux(t *testing.T) {
	ip := netip.MustParseAddr("192.0.2.1")
	stubInterfaces(t, map[int]*net.Interface{1: {Index: 1, Name: "eth0", Flags: net.FlagUp}})

	tests := []struct {
		name    string
		msgs    []rtnetlink.RouteMessage
		err     error
		wantErr bool
	}{
		{
			name: "successful fetch",
			msgs: []rtnetlink.RouteMessage{{
				Family: unix.AF_INET,
				Type:   unix.RTN_UNICAST,
				Attributes: rtnetlink.RouteAttributes{
					Dst:      ip.AsSlice(),
					Src:      netip.MustParseAddr("192.0.2.10").AsSlice(),
					OutIface: 1,
				},
			}},
		},
		{
			name:    "fetch error",
			err:     errors.New("dial failed"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := fetchRoutes
			fetchRoutes = func(netip.Addr) ([]rtnetlink.RouteMessage, error) { return tt.msgs, tt.err }
			defer func() { fetchRoutes = orig }()

			_, err := get(ip)

			if (err != nil) != tt.wantErr {
				t.Errorf("get() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
