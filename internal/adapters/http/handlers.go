package http

import (
	"net/http"

	"github.com/dkeye/rclass/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type loginRequest struct {
	Login    string `json:"login" binding:"required,max=64"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Login    string `json:"login" binding:"required,max=64"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=4"`
}

type guestRequest struct {
	Name string `json:"name" binding:"required"`
}

type attendanceQuery struct {
	Start  int64 `form:"start" binding:"gte=0"`
	End    int64 `form:"end" binding:"gte=0"`
	Offset int   `form:"offset" binding:"gte=0"`
	Limit  int   `form:"limit" binding:"gte=0,lte=100"`
}

func (a *api) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "rooms": a.orch.Rooms.Len()})
}

func (a *api) rooms(c *gin.Context) {
	ok(c, a.orch.ListRooms(c.Request.Context()))
}

func (a *api) signIn(c *gin.Context, acc *domain.Account) {
	if err := saveAccount(c, acc); err != nil {
		fail(c, err)
		return
	}
	log.Info().Str("module", "adapters.http").Str("member", string(acc.ID)).Str("type", string(acc.Type)).Msg("signed in")
	ok(c, acc)
}

func (a *api) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, domain.ErrBadPayload)
		return
	}
	acc, err := a.orch.Authenticate(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	a.signIn(c, acc)
}

func (a *api) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, domain.ErrBadPayload)
		return
	}
	acc, err := a.orch.CreateAccount(c.Request.Context(), req.Login, req.Name, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	a.signIn(c, acc)
}

func (a *api) guest(c *gin.Context) {
	var req guestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, domain.ErrBadPayload)
		return
	}
	acc, err := a.orch.CreateGuest(c.Request.Context(), req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	a.signIn(c, acc)
}

func (a *api) logout(c *gin.Context) {
	s := sessions.Default(c)
	s.Clear()
	if err := s.Save(); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (a *api) me(c *gin.Context) {
	acc, found := sessionAccountOf(c)
	if !found {
		fail(c, domain.ErrLoginRequired)
		return
	}
	ok(c, acc)
}

func (a *api) myAttendance(c *gin.Context) {
	var q attendanceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, domain.ErrBadPayload)
		return
	}
	acc, _ := sessionAccountOf(c)
	page, err := a.orch.MyAttendance(c.Request.Context(), acc, domain.AttendanceQuery{
		Start:  q.Start,
		End:    q.End,
		Offset: q.Offset,
		Limit:  q.Limit,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, page)
}

// roomAttendance serves archived results to registered members.
func (a *api) roomAttendance(c *gin.Context) {
	acc, found := sessionAccountOf(c)
	if !found {
		fail(c, domain.ErrLoginRequired)
		return
	}
	if acc.Type != domain.AccountMember {
		fail(c, domain.ErrGuestForbidden)
		return
	}
	report, err := a.orch.RoomAttendance(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, report)
}
