/*
 * Copyright (C) 2022 IBM, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package utils

import (
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_SetupElegantExit(t *testing.T) {
	SetupElegantExit()
	require.Empty(t, registeredChannels)
	ch1 := make(chan struct{})
	ch2 := make(chan struct{})
	RegisterExitChannel(ch1)
	require.Len(t, registeredChannels, 1)
	RegisterExitChannel(ch2)
	require.Len(t, registeredChannels, 2)
	ch3 := ExitChannel()
	require.Len(t, registeredChannels, 3)

	select {
	case <-ch1:
		require.Fail(t, "channel should not be closed yet")
	default:
	}

	// send signal and see that it is propagated
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGINT))

	for _, ch := range []<-chan struct{}{ch1, ch2, ch3} {
		select {
		case <-ch:
		case <-time.After(5 * time.Second):
			require.Fail(t, "channel should have been closed")
		}
	}
}
