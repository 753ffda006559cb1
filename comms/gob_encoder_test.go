// SPDX-FileCopyrightText: 2022 SoftIron Limited <info@softiron.com>
// SPDX-License-Identifier: GNU General Public License v2.0 only WITH Classpath exception 2.0

// Tests for the Gob encoder.

package comms

import "testing"

import "github.com/stretchr/testify/require"


type testPayload struct {
    Name string
    Count int32
    Body []byte
}


// Round-trip a message with a data struct.
func TestGobEncoderRoundTrip(t *testing.T) {
    sent := testPayload{Name: "hello", Count: -7, Body: []byte{1, 2, 3}}

    sender := makeTestByteConn(nil)
    err := makeGobEncoder(makePreLengthFramer(sender)).Send(42, &sent)
    require.NoError(t, err)

    receiver := makeGobEncoder(makePreLengthFramer(makeTestByteConn(sender.WriteBytes())))
    msg, err := receiver.Receive()
    require.NoError(t, err)
    require.Equal(t, uint8(42), msg.ID())

    var got testPayload
    require.NoError(t, msg.Data(&got))
    require.Equal(t, sent, got)
}


// Round-trip a message with no data at all.
func TestGobEncoderNoData(t *testing.T) {
    sender := makeTestByteConn(nil)
    err := makeGobEncoder(makePreLengthFramer(sender)).Send(9, nil)
    require.NoError(t, err)

    receiver := makeGobEncoder(makePreLengthFramer(makeTestByteConn(sender.WriteBytes())))
    msg, err := receiver.Receive()
    require.NoError(t, err)
    require.Equal(t, uint8(9), msg.ID())
}


// Decoding into the wrong type must report an error, not garbage.
func TestGobEncoderBadDecode(t *testing.T) {
    sender := makeTestByteConn(nil)
    err := makeGobEncoder(makePreLengthFramer(sender)).Send(1, &testPayload{Name: "x"})
    require.NoError(t, err)

    receiver := makeGobEncoder(makePreLengthFramer(makeTestByteConn(sender.WriteBytes())))
    msg, err := receiver.Receive()
    require.NoError(t, err)

    var wrong int32
    require.Error(t, msg.Data(&wrong))
}
