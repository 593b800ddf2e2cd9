package server

import (
	"bufio"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufReader(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestParseWhitelistExpandsBareIPsToHostCIDR(t *testing.T) {
	nets := parseWhitelist([]string{"10.0.0.1", "not-an-ip"})
	require.Len(t, nets, 1)
	assert.Equal(t, "10.0.0.1/32", nets[0].String())
}

func TestPeerMayProxyEmptyWhitelistAllowsAny(t *testing.T) {
	l := &proxyListener{allowedNets: nil}
	assert.True(t, l.peerMayProxy(&net.TCPConn{}))
}

func TestLooksLikeV1DetectsProxyPrefix(t *testing.T) {
	pc := &proxyConn{bufReader: newBufReader("PROXY TCP4 1.1.1.1 2.2.2.2 1111 2222\r\n")}
	assert.True(t, pc.looksLikeV1())
}

func TestReadV1HeaderParsesAddressesAndPorts(t *testing.T) {
	pc := &proxyConn{bufReader: newBufReader("PROXY TCP4 1.1.1.1 2.2.2.2 1111 2222\r\n")}
	pc.readV1Header()
	require.NoError(t, pc.headerErr)
	assert.Equal(t, "1.1.1.1", pc.srcAddr.IP.String())
	assert.Equal(t, 1111, pc.srcAddr.Port)
	assert.Equal(t, "2.2.2.2", pc.dstAddr.IP.String())
	assert.Equal(t, 2222, pc.dstAddr.Port)
}

func TestReadV1HeaderRejectsMalformedLine(t *testing.T) {
	pc := &proxyConn{bufReader: newBufReader("PROXY TCP4 only-three-fields\r\n")}
	pc.readV1Header()
	assert.Error(t, pc.headerErr)
}
