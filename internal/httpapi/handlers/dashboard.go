package handlers

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/techtribe/studio-api/internal/common"
)

type dashboardStats struct {
	TotalProducts  int64 `json:"total_products"`
	TotalMessages  int64 `json:"total_messages"`
	UnreadMessages int64 `json:"unread_messages"`
	TotalChats     int64 `json:"total_chats"`
	TotalUsers     int64 `json:"total_users"`
}

func (h *Handler) DashboardStats(c *gin.Context) {
	var st dashboardStats
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) {
		st.TotalProducts, err = h.Catalogue.CountActive(ctx)
		return err
	})
	g.Go(func() error {
		counts, err := h.Contact.Counts(ctx)
		st.TotalMessages, st.UnreadMessages = counts.Total, counts.Unread
		return err
	})
	g.Go(func() (err error) {
		st.TotalChats, err = h.Chat.CountConversations(ctx)
		return err
	})
	g.Go(func() (err error) {
		st.TotalUsers, err = h.Auth.CountUsers(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		h.writeError(c, err)
		return
	}
	common.OK(c, st)
}
