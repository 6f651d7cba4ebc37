package signal

import (
	"context"
	"encoding/json"

	"github.com/dkeye/rclass/internal/app"
)

func (ctl *SignalWSController) routes() map[string]handlerFunc {
	return map[string]handlerFunc{
		"ping":   ctl.handlePing,
		"whoami": ctl.handleWhoAmI,

		"login":       ctl.handleLogin,
		"register":    ctl.handleRegister,
		"guest_login": ctl.handleGuestLogin,

		"join_room":        ctl.handleJoin,
		"leave":            ctl.handleLeave,
		"get_online_users": ctl.handleOnlineUsers,
		"get_rooms":        ctl.handleRooms,

		"store_rtp_capabilities": ctl.handleStoreCapabilities,
		"create_transport":       ctl.handleCreateTransport,
		"connect_transport":      ctl.handleConnectTransport,
		"produce":                ctl.handleProduce,
		"consume":                ctl.handleConsume,
		"resume_consumer":        ctl.handleResumeConsumer,

		"set_group":  ctl.handleSetGroup,
		"get_groups": ctl.handleGetGroups,
		"del_group":  ctl.handleDelGroup,

		"chat_send":    ctl.handleChatSend,
		"chat_history": ctl.handleChatHistory,

		"lesson_start":        ctl.handleLessonStart,
		"lesson_end":          ctl.handleLessonEnd,
		"lesson_state":        ctl.handleLessonState,
		"log_backup":          ctl.handleLogBackup,
		"log_complete":        ctl.handleLogComplete,
		"attendance_override": ctl.handleAttendanceOverride,
		"attendance_results":  ctl.handleAttendanceResults,

		"create_class":      ctl.handleCreateClass,
		"list_classes":      ctl.handleListClasses,
		"delete_class":      ctl.handleDeleteClass,
		"add_class_time":    ctl.handleAddClassTime,
		"delete_class_time": ctl.handleDeleteClassTime,
		"list_class_time":   ctl.handleListClassTime,
		"enroll_student":    ctl.handleEnrollStudent,
		"get_my_attendance": ctl.handleMyAttendance,
	}
}

func (ctl *SignalWSController) handlePing(context.Context, app.SessionID, json.RawMessage) (any, error) {
	return "pong", nil
}
