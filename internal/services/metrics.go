package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commentsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comicnest_comments_created_total",
			Help: "Total number of comments created, by kind (root or reply).",
		}, []string{"kind"})
	commentsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "comicnest_comments_deleted_total",
			Help: "Total number of comment rows removed by cascade deletion.",
		})
	reactionsToggled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comicnest_comment_reactions_total",
			Help: "Total number of like/dislike toggles, by action and resulting state.",
		}, []string{"action", "state"})
	treeCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comicnest_comment_tree_cache_total",
			Help: "Chapter comment tree cache lookups, by result.",
		}, []string{"result"})
	comicViews = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comicnest_views_total",
			Help: "Total number of recorded views, by target (comic or chapter).",
		}, []string{"target"})
)
