// Package todos is a personal todo list, items belong to their author no
// matter which server or DM they were added from.
package todos

import (
	"time"

	"emperror.dev/errors"
	"github.com/jinzhu/gorm"
	"github.com/lurelin/medli/common"
)

var logger = common.GetPluginLogger(&Plugin{})

type Plugin struct{}

func (p *Plugin) PluginInfo() *common.PluginInfo {
	return &common.PluginInfo{
		Name:     "Todos",
		SysName:  "todos",
		Category: common.PluginCategoryTool,
	}
}

func RegisterPlugin() {
	err := common.GORM.AutoMigrate(&Todo{}).Error
	if err != nil {
		logger.WithError(err).Fatal("failed migrating todos database")
	}

	common.RegisterPlugin(&Plugin{})
}

type Todo struct {
	ID        int64 `gorm:"primary_key"`
	CreatedAt time.Time

	OwnerID int64  `gorm:"index"`
	Content string `gorm:"type:text"`
	// the message that created the todo, empty for slash invocations
	JumpURL string
}

// GetUserTodos returns the oldest 100 todos of the user.
func GetUserTodos(ownerID int64) (results []*Todo, err error) {
	err = common.GORM.Where(&Todo{OwnerID: ownerID}).Order("id asc").Limit(100).Find(&results).Error
	if err == gorm.ErrRecordNotFound {
		err = nil
	}

	return results, errors.WithStackIf(err)
}

func CountUserTodos(ownerID int64) (count int, err error) {
	err = common.GORM.Model(&Todo{}).Where("owner_id = ?", ownerID).Count(&count).Error
	return count, errors.WithStackIf(err)
}

func AddTodo(ownerID int64, content, jumpURL string) (*Todo, error) {
	todo := &Todo{
		OwnerID: ownerID,
		Content: content,
		JumpURL: jumpURL,
	}

	err := common.GORM.Create(todo).Error
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	return todo, nil
}

// GetTodo fetches one of the user's todos, nil when the id isn't theirs.
func GetTodo(ownerID, id int64) (*Todo, error) {
	var todo Todo
	err := common.GORM.Where("owner_id = ? AND id = ?", ownerID, id).First(&todo).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}

		return nil, errors.WithStackIf(err)
	}

	return &todo, nil
}

// UpdateTodo rewrites a todo's content, false when the id isn't the user's.
func UpdateTodo(ownerID, id int64, content, jumpURL string) (bool, error) {
	result := common.GORM.Model(&Todo{}).Where("owner_id = ? AND id = ?", ownerID, id).
		Updates(map[string]interface{}{"content": content, "jump_url": jumpURL})
	if result.Error != nil {
		return false, errors.WithStackIf(result.Error)
	}

	return result.RowsAffected > 0, nil
}

// DeleteTodos removes the given todos, ids belonging to someone else are
// silently skipped.
func DeleteTodos(ownerID int64, ids []int64) error {
	err := common.GORM.Where("owner_id = ? AND id IN (?)", ownerID, ids).Delete(&Todo{}).Error
	return errors.WithStackIf(err)
}

func ClearTodos(ownerID int64) error {
	err := common.GORM.Where("owner_id = ?", ownerID).Delete(&Todo{}).Error
	return errors.WithStackIf(err)
}
