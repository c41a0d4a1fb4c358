package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants for the client-server protocol
const (
	// Client to server messages
	MessageTypeCreateRoom     MessageType = "create_room"
	MessageTypeJoinRoom       MessageType = "join_room"
	MessageTypeLeaveRoom      MessageType = "leave_room"
	MessageTypeDrawNumber     MessageType = "draw_number"
	MessageTypeClaimWin       MessageType = "claim_win"
	MessageTypeTransferCaller MessageType = "transfer_caller"
	MessageTypeStartAutoDraw  MessageType = "start_auto_draw"
	MessageTypeStopAutoDraw   MessageType = "stop_auto_draw"
	MessageTypeResumeGame     MessageType = "resume_game"
	MessageTypeRoomInfo       MessageType = "room_info"

	// Server to client messages
	MessageTypeRoomCreated   MessageType = "room_created"
	MessageTypeRoomJoined    MessageType = "room_joined"
	MessageTypePlayerJoined  MessageType = "player_joined"
	MessageTypePlayerLeft    MessageType = "player_left"
	MessageTypeNumberDrawn   MessageType = "number_drawn"
	MessageTypeWinClaimed    MessageType = "win_claimed"
	MessageTypeSessionEnded  MessageType = "session_ended"
	MessageTypeCallerChanged MessageType = "caller_changed"
	MessageTypeGameStarted   MessageType = "game_started"
	MessageTypeGameStopped   MessageType = "game_stopped"
	MessageTypeGameFinished  MessageType = "game_finished"
	MessageTypeGameResumed   MessageType = "game_resumed"
	MessageTypeRoomInfoData  MessageType = "room_info_data"
	MessageTypeError         MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
