// Package snmpd triggers device resyncs from SNMP MAC-change traps.
package snmpd

import (
	"encoding/binary"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/netopsctl/nbsync/logger"
)

var log = logger.GetLogger("snmpd")

const (
	// Minimum time between resyncs triggered by the same device
	DebounceTime = 10 * time.Second

	snmpTrapOID          = ".1.3.6.1.6.3.1.1.4.1.0"
	macChangedNotifOID   = ".1.3.6.1.4.1.9.9.215.2.0.1"
	macChangedMsgPrefix  = ".1.3.6.1.4.1.9.9.215.1.1.8.1.2"
	minMacChangedMsgSize = 11
)

// trapState holds the time of the last accepted trap for debouncing
type trapState struct {
	lastSync time.Time
	mutex    sync.Mutex

	// runMu serializes syncs for this source; a sync can outlive the
	// debounce window, and concurrent sessions to the same switch would
	// interleave on the shared transport
	runMu sync.Mutex
}

// Daemon listens for SNMP traps from registered devices and schedules a
// resync of the sending device.
type Daemon struct {
	community string
	port      int
	devices   map[string]string // source IP -> inventory device name
	syncFn    func(deviceName string)
	onTrap    func()

	listener *gosnmp.TrapListener

	statesMu sync.Mutex
	states   map[string]*trapState
}

// New creates a trap daemon. devices maps management IPs onto inventory
// device names; syncFn is invoked (in its own goroutine) per resync.
func New(community string, port int, devices map[string]string, syncFn func(string)) *Daemon {
	return &Daemon{
		community: community,
		port:      port,
		devices:   devices,
		syncFn:    syncFn,
		states:    make(map[string]*trapState),
	}
}

// SetTrapHook installs a callback invoked for every accepted trap.
func (d *Daemon) SetTrapHook(fn func()) {
	d.onTrap = fn
}

// Run blocks listening for traps until Close is called.
func (d *Daemon) Run() error {
	listener := gosnmp.NewTrapListener()
	listener.Params = &gosnmp.GoSNMP{
		Port:      uint16(d.port),
		Community: d.community,
		Version:   gosnmp.Version2c,
		Timeout:   5 * time.Second,
		Transport: "udp",
	}
	listener.OnNewTrap = d.handleTrap
	d.listener = listener
	log.Infof("Listening for SNMP traps on udp/%d (community %s)", d.port, d.community)
	return listener.Listen(fmt.Sprintf("0.0.0.0:%d", d.port))
}

// Close stops the trap listener.
func (d *Daemon) Close() {
	if d.listener != nil {
		d.listener.Close()
	}
}

func (d *Daemon) handleTrap(packet *gosnmp.SnmpPacket, addr *net.UDPAddr) {
	source := addr.IP.String()
	deviceName, registered := d.devices[source]
	if !registered {
		log.Warnf("Trap from %s does not match any registered device", source)
		return
	}

	if !isMacChangedTrap(packet) {
		log.Debugf("Ignoring trap from %s (%s): not a MAC change notification", source, deviceName)
		return
	}
	if mac, vlan, port, ok := decodeMacChangedMsg(packet); ok {
		log.Debugf("MAC change on %s: mac=%s vlan=%d dot1dBasePort=%d", deviceName, mac, vlan, port)
	}
	if d.onTrap != nil {
		d.onTrap()
	}

	state := d.stateFor(source)
	state.mutex.Lock()
	if time.Since(state.lastSync) < DebounceTime {
		state.mutex.Unlock()
		log.Debugf("Debouncing trap from %s", deviceName)
		return
	}
	state.lastSync = time.Now()
	state.mutex.Unlock()

	log.Infof("MAC change trap from %s, scheduling resync", deviceName)
	go func() {
		state.runMu.Lock()
		defer state.runMu.Unlock()
		d.syncFn(deviceName)
	}()
}

func (d *Daemon) stateFor(source string) *trapState {
	d.statesMu.Lock()
	defer d.statesMu.Unlock()
	state, exists := d.states[source]
	if !exists {
		state = &trapState{}
		d.states[source] = state
	}
	return state
}

func isMacChangedTrap(packet *gosnmp.SnmpPacket) bool {
	for _, variable := range packet.Variables {
		if variable.Name == snmpTrapOID {
			if value, ok := variable.Value.(string); ok && value == macChangedNotifOID {
				return true
			}
		}
	}
	return false
}

// decodeMacChangedMsg unpacks cmnHistMacChangedMsg: operation byte, VLAN
// (2 bytes), MAC (6 bytes), dot1dBasePort (2 bytes).
func decodeMacChangedMsg(packet *gosnmp.SnmpPacket) (mac string, vlan uint16, port uint16, ok bool) {
	for _, variable := range packet.Variables {
		if !strings.HasPrefix(variable.Name, macChangedMsgPrefix) {
			continue
		}
		raw, isBytes := variable.Value.([]byte)
		if !isBytes || len(raw) < minMacChangedMsgSize {
			log.Warnf("Invalid or too short cmnHistMacChangedMsg: %v", variable.Value)
			return "", 0, 0, false
		}
		vlan = binary.BigEndian.Uint16(raw[1:3])
		macBytes := raw[3:9]
		mac = fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
			macBytes[0], macBytes[1], macBytes[2], macBytes[3], macBytes[4], macBytes[5])
		port = binary.BigEndian.Uint16(raw[9:11])
		return mac, vlan, port, true
	}
	return "", 0, 0, false
}
