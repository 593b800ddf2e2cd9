package server

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/netterhq/netter/config"
	"github.com/netterhq/netter/logger"
)

// proxySignature is the 12-byte binary PROXY protocol v2 signature, checked
// byte-by-byte after the v1 text-header probe fails.
var proxySignature = []byte{
	0x0d, 0x0a, 0x0d, 0x0a,
	0x00, 0x0d, 0x0a, 0x51,
	0x55, 0x49, 0x54, 0x0a,
}

// proxyListener wraps a *net.TCPListener to optionally strip a PROXY
// protocol (v1 text or v2 binary) preamble off each accepted connection,
// adapted from the teacher's listener.go so the interpreter's Request
// builtin can eventually see the real client IP behind a load balancer
// rather than the balancer's own address.
type proxyListener struct {
	*net.TCPListener

	log           *logger.Logger
	enabled       bool
	headerTimeout time.Duration
	allowedNets   []*net.IPNet
}

func newListener(cfg *config.RuntimeConfig, log *logger.Logger) (*proxyListener, error) {
	nl, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return nil, err
	}

	pl := &proxyListener{
		TCPListener:   nl.(*net.TCPListener),
		log:           log,
		enabled:       cfg.PROXYEnabled,
		headerTimeout: cfg.PROXYReadHeaderTimeout,
		allowedNets:   parseWhitelist(cfg.PROXYRelayerIPWhitelist),
	}
	return pl, nil
}

func parseWhitelist(whitelist []string) []*net.IPNet {
	var nets []*net.IPNet
	for _, s := range whitelist {
		ip := net.ParseIP(s)
		if ip == nil {
			continue
		}
		cidr := s
		switch {
		case ip.IsUnspecified():
			cidr = ip.String() + "/0"
		case ip.To4() != nil:
			cidr = ip.String() + "/32"
		default:
			cidr = ip.String() + "/128"
		}
		if _, ipNet, err := net.ParseCIDR(cidr); err == nil {
			nets = append(nets, ipNet)
		}
	}
	return nets
}

// Accept implements net.Listener, wrapping the accepted connection in a
// proxyConn when PROXY protocol handling is enabled and the peer is either
// unrestricted or within the configured relayer whitelist.
func (l *proxyListener) Accept() (net.Conn, error) {
	tc, err := l.AcceptTCP()
	if err != nil {
		return nil, err
	}
	tc.SetKeepAlive(true)
	tc.SetKeepAlivePeriod(3 * time.Minute)

	if !l.enabled || !l.peerMayProxy(tc) {
		return tc, nil
	}

	return &proxyConn{
		Conn:           tc,
		bufReader:      bufio.NewReader(tc),
		readHeaderOnce: &sync.Once{},
		headerTimeout:  l.headerTimeout,
		log:            l.log,
	}, nil
}

func (l *proxyListener) peerMayProxy(tc *net.TCPConn) bool {
	if len(l.allowedNets) == 0 {
		return true
	}
	host, _, _ := net.SplitHostPort(tc.RemoteAddr().String())
	ip := net.ParseIP(host)
	for _, ipNet := range l.allowedNets {
		if ipNet.Contains(ip) {
			return true
		}
	}
	return false
}

// proxyConn is a net.Conn that transparently consumes a PROXY protocol
// preamble (v1 text or v2 binary) on first read, substituting the
// proxy-reported source/destination addresses for the raw TCP peer address.
type proxyConn struct {
	net.Conn

	bufReader      *bufio.Reader
	srcAddr        *net.TCPAddr
	dstAddr        *net.TCPAddr
	readHeaderOnce *sync.Once
	headerErr      error
	headerTimeout  time.Duration
	log            *logger.Logger
}

func (pc *proxyConn) Read(b []byte) (int, error) {
	pc.readHeaderOnce.Do(pc.consumeHeader)
	if pc.headerErr != nil {
		return 0, pc.headerErr
	}
	return pc.bufReader.Read(b)
}

func (pc *proxyConn) LocalAddr() net.Addr {
	pc.readHeaderOnce.Do(pc.consumeHeader)
	if pc.dstAddr != nil {
		return pc.dstAddr
	}
	return pc.Conn.LocalAddr()
}

func (pc *proxyConn) RemoteAddr() net.Addr {
	pc.readHeaderOnce.Do(pc.consumeHeader)
	if pc.srcAddr != nil {
		return pc.srcAddr
	}
	return pc.Conn.RemoteAddr()
}

func (pc *proxyConn) consumeHeader() {
	if pc.headerTimeout != 0 {
		pc.SetReadDeadline(time.Now().Add(pc.headerTimeout))
		defer pc.SetReadDeadline(time.Time{})
	}
	defer func() {
		if pc.headerErr != nil && pc.headerErr != io.EOF && pc.log != nil {
			pc.log.Warn("proxy protocol header rejected", map[string]interface{}{"error": pc.headerErr.Error()})
		}
	}()

	if pc.looksLikeV1() {
		pc.readV1Header()
		return
	}
	if pc.looksLikeV2() {
		pc.readV2Header()
	}
}

func (pc *proxyConn) looksLikeV1() bool {
	for i := 0; i < len("PROXY "); i++ {
		b, err := pc.bufReader.Peek(i + 1)
		if err != nil {
			pc.setTimeoutTolerantError(err)
			return false
		}
		if b[i] != "PROXY "[i] {
			return false
		}
	}
	return true
}

func (pc *proxyConn) looksLikeV2() bool {
	for i := range proxySignature {
		b, err := pc.bufReader.Peek(i + 1)
		if err != nil {
			pc.setTimeoutTolerantError(err)
			return false
		}
		if b[i] != proxySignature[i] {
			return false
		}
	}
	return true
}

func (pc *proxyConn) setTimeoutTolerantError(err error) {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return
	}
	pc.headerErr = err
}

// readV1Header parses "PROXY <proto> <src ip> <dst ip> <src port> <dst port>\r\n".
func (pc *proxyConn) readV1Header() {
	header, err := pc.bufReader.ReadString('\n')
	if err != nil {
		pc.headerErr = err
		return
	}
	header = strings.TrimRight(header, "\r\n")

	parts := strings.Split(header, " ")
	if len(parts) != 6 {
		pc.headerErr = fmt.Errorf("malformed proxy v1 header: %s", header)
		return
	}
	switch parts[1] {
	case "TCP4", "TCP6":
	default:
		pc.headerErr = fmt.Errorf("unsupported proxy transport: %s", parts[1])
		return
	}

	srcIP := net.ParseIP(parts[2])
	dstIP := net.ParseIP(parts[3])
	if srcIP == nil || dstIP == nil {
		pc.headerErr = fmt.Errorf("invalid proxy address in header: %s", header)
		return
	}
	srcPort, err1 := strconv.Atoi(parts[4])
	dstPort, err2 := strconv.Atoi(parts[5])
	if err1 != nil || err2 != nil {
		pc.headerErr = fmt.Errorf("invalid proxy port in header: %s", header)
		return
	}

	pc.srcAddr = &net.TCPAddr{IP: srcIP, Port: srcPort}
	pc.dstAddr = &net.TCPAddr{IP: dstIP, Port: dstPort}
}

// readV2Header parses the fixed-layout binary PROXY protocol v2 header.
func (pc *proxyConn) readV2Header() {
	if _, err := pc.bufReader.Discard(len(proxySignature)); err != nil {
		pc.headerErr = err
		return
	}

	verCmd, err := pc.bufReader.ReadByte()
	if err != nil {
		pc.headerErr = err
		return
	}
	if verCmd&0xf0 != 0x20 || verCmd&0x0f != 0x01 {
		pc.headerErr = errors.New("unsupported proxy v2 version or command")
		return
	}

	famProto, err := pc.bufReader.ReadByte()
	if err != nil {
		pc.headerErr = err
		return
	}
	if famProto&0x0f != 0x01 {
		pc.headerErr = errors.New("unsupported proxy v2 transport")
		return
	}

	var addrLen uint16
	switch famProto {
	case 0x11:
		addrLen = 12
	case 0x21:
		addrLen = 36
	default:
		pc.headerErr = errors.New("unsupported proxy v2 address family")
		return
	}

	var declaredLen uint16
	if err := binary.Read(pc.bufReader, binary.BigEndian, &declaredLen); err != nil {
		pc.headerErr = err
		return
	}
	if declaredLen != addrLen {
		pc.headerErr = fmt.Errorf("unexpected proxy v2 address length: %d", declaredLen)
		return
	}

	ipSize := 4
	if addrLen == 36 {
		ipSize = 16
	}
	srcIP := make(net.IP, ipSize)
	dstIP := make(net.IP, ipSize)
	var srcPort, dstPort uint16

	for _, field := range []interface{}{&srcIP, &dstIP} {
		if _, err := io.ReadFull(pc.bufReader, *(field.(*net.IP))); err != nil {
			pc.headerErr = err
			return
		}
	}
	if err := binary.Read(pc.bufReader, binary.BigEndian, &srcPort); err != nil {
		pc.headerErr = err
		return
	}
	if err := binary.Read(pc.bufReader, binary.BigEndian, &dstPort); err != nil {
		pc.headerErr = err
		return
	}

	pc.srcAddr = &net.TCPAddr{IP: srcIP, Port: int(srcPort)}
	pc.dstAddr = &net.TCPAddr{IP: dstIP, Port: int(dstPort)}
}
