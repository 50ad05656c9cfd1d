package bus

import "fmt"

// Topic patterns for local mission fan-out.

func TopicMissionEvents(missionID string) string {
	return fmt.Sprintf("mission.%s.events", missionID)
}

func TopicMissionStatus(missionID string) string {
	return fmt.Sprintf("mission.%s.status", missionID)
}

const (
	TopicMissionAll = "mission.>"
)
