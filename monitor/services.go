package monitor

import (
	"context"

	"github.com/godbus/dbus/v5"
)

// WatchedServices are the units whose health the dashboard cares about.
var WatchedServices = []string{
	"smbd.service",
	"nmbd.service",
	"winbindd.service",
	"samba-ad-dc.service",
	"nfs-server.service",
}

type ServiceStatus struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ActiveState string `json:"activeState"`
	SubState    string `json:"subState"`
}

// SystemdClient reads unit state over the system bus.
type SystemdClient struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

func NewSystemdClient() (*SystemdClient, error) {
	c, err := dbus.SystemBus()
	if err != nil {
		return nil, err
	}
	obj := c.Object("org.freedesktop.systemd1", dbus.ObjectPath("/org/freedesktop/systemd1"))
	return &SystemdClient{conn: c, obj: obj}, nil
}

func (c *SystemdClient) Close() { _ = c.conn.Close() }

// ServiceStatuses reports the state of every watched unit. LoadUnit is used
// rather than GetUnit so units that are installed but inactive still answer;
// a unit that does not exist at all comes back as "not-found".
func (c *SystemdClient) ServiceStatuses(ctx context.Context) ([]ServiceStatus, error) {
	statuses := make([]ServiceStatus, 0, len(WatchedServices))
	for _, name := range WatchedServices {
		st, err := c.unitStatus(ctx, name)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

func (c *SystemdClient) unitStatus(ctx context.Context, name string) (ServiceStatus, error) {
	st := ServiceStatus{Name: name}

	var path dbus.ObjectPath
	if err := c.obj.CallWithContext(ctx, "org.freedesktop.systemd1.Manager.LoadUnit", 0, name).Store(&path); err != nil {
		return ServiceStatus{}, err
	}
	unit := c.conn.Object("org.freedesktop.systemd1", path)

	if v, err := unit.GetProperty("org.freedesktop.systemd1.Unit.Description"); err == nil {
		if s, ok := v.Value().(string); ok {
			st.Description = s
		}
	}
	if v, err := unit.GetProperty("org.freedesktop.systemd1.Unit.LoadState"); err == nil {
		if s, ok := v.Value().(string); ok && s == "not-found" {
			st.ActiveState = "not-found"
			return st, nil
		}
	}
	if v, err := unit.GetProperty("org.freedesktop.systemd1.Unit.ActiveState"); err == nil {
		if s, ok := v.Value().(string); ok {
			st.ActiveState = s
		}
	}
	if v, err := unit.GetProperty("org.freedesktop.systemd1.Unit.SubState"); err == nil {
		if s, ok := v.Value().(string); ok {
			st.SubState = s
		}
	}
	return st, nil
}
