// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the main chat screen of the divecoach TUI.

The Model is a Bubble Tea model over the session store and the streaming
controller. It owns no conversation state of its own: every frame is drawn
from the stores, so a reply that lands in another session while the user
browses shows up there and nowhere else.

# Streaming

Enter starts sendCmd, which runs stream.Controller.Send on the command
goroutine and returns replyDoneMsg once the assistant message has been
committed. While it runs, a 33ms tick copies Controller.Partial into the
model and redraws it as a provisional bubble, but only when the reply
targets the session on screen. Esc cancels; the controller then commits
the partial text with a cancellation marker.

# Views

  - chat: session sidebar, messages (assistant replies rendered with
    glamour), input line disabled while streaming
  - topics (ctrl+p): every preset prompt, enter asks it
  - metrics (ctrl+s): usage and retrieval statistics from the poller

An empty session shows the welcome screen with one random topic; enter on
an empty input asks it and ctrl+r picks another.

# External Events

The CLI forwards events from other goroutines with tea.Program.Send:
PresetsChangedMsg from the preset file watcher and StatsMsg from the
metrics poller.
*/
package chat
