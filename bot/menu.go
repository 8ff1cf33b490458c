package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/volunteerhub/volunteer-bot/models"
)

// Построение клавиатур. Все функции детерминированы и не имеют побочных
// эффектов: раскладка зависит только от роли, состояния и переданных
// множеств выбора. Галочка на переключателях — чисто косметическая,
// состояние выбора из надписи никогда не восстанавливается.

const checkMark = " ✅"

func mainMenuKeyboard(role models.Role) tgbotapi.ReplyKeyboardMarkup {
	rows := [][]tgbotapi.KeyboardButton{
		{
			tgbotapi.NewKeyboardButton(btnAIChat),
			tgbotapi.NewKeyboardButton(btnVolunteer),
		},
	}
	if role == models.RoleAdmin {
		rows = append(rows, []tgbotapi.KeyboardButton{
			tgbotapi.NewKeyboardButton(btnAdminMenu),
		})
	}
	if role == models.RoleAdmin || role == models.RoleModerator {
		rows = append(rows, []tgbotapi.KeyboardButton{
			tgbotapi.NewKeyboardButton(btnModeratorMenu),
		})
	}
	rows = append(rows, []tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButton(btnLogout),
	})
	return tgbotapi.NewReplyKeyboard(rows...)
}

func volunteerKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnProfile),
			tgbotapi.NewKeyboardButton(btnEvents),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnMyEvents),
			tgbotapi.NewKeyboardButton(btnScore),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnRedeem),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnBack),
		),
	)
}

func profileKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCity),
			tgbotapi.NewKeyboardButton(btnTags),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnDeleteProfile),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnBack),
		),
	)
}

func adminKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSetRole),
			tgbotapi.NewKeyboardButton(btnUserList),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnDeleteUser),
			tgbotapi.NewKeyboardButton(btnProjects),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnExportCSV),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnBack),
		),
	)
}

func projectKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnAddProject),
			tgbotapi.NewKeyboardButton(btnListProjects),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnBack),
		),
	)
}

func moderatorKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCreateEvent),
			tgbotapi.NewKeyboardButton(btnEditEvents),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnImportCSV),
			tgbotapi.NewKeyboardButton(btnReports),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnBack),
		),
	)
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
}

func skipCancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
}

func confirmCancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
}

func yesNoKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnYes),
			tgbotapi.NewKeyboardButton(btnNo),
		),
	)
}

func backKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnBack),
		),
	)
}

// cityPickerKeyboard строит клавиатуру выбора города.
// Текущий город помечается галочкой.
func cityPickerKeyboard(selected string) tgbotapi.InlineKeyboardMarkup {
	keyboard := tgbotapi.NewInlineKeyboardMarkup()
	for _, city := range models.Cities {
		label := city
		if city == selected {
			label += checkMark
		}
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, "city:"+city),
			),
		)
	}
	keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnCancel, "cancel:"),
		),
	)
	return keyboard
}

// tagPickerKeyboard строит клавиатуру-переключатель тегов.
// Нажатие на тег меняет его принадлежность множеству выбора,
// «Готово» фиксирует выбор.
func tagPickerKeyboard(selected map[string]bool) tgbotapi.InlineKeyboardMarkup {
	keyboard := tgbotapi.NewInlineKeyboardMarkup()
	for _, tag := range models.Tags {
		label := tag
		if selected[tag] {
			label += checkMark
		}
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, "tag:"+tag),
			),
		)
	}
	keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnDone, "done:"),
			tgbotapi.NewInlineKeyboardButtonData(btnCancel, "cancel:"),
		),
	)
	return keyboard
}

// eventListKeyboard строит клавиатуру страницы списка событий: кнопка
// записи или отмены записи на каждое событие и навигация по страницам.
// Кнопки за пределами списка не показываются.
func eventListKeyboard(events []*models.Event, user *models.User, page, totalPages int) tgbotapi.InlineKeyboardMarkup {
	keyboard := tgbotapi.NewInlineKeyboardMarkup()
	for _, event := range events {
		var button tgbotapi.InlineKeyboardButton
		if user.IsRegistered(event.ID) {
			button = tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("❌ Отписаться: %s", event.Name),
				fmt.Sprintf("unreg:%d", event.ID),
			)
		} else {
			button = tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("✍️ Записаться: %s", event.Name),
				fmt.Sprintf("reg:%d", event.ID),
			)
		}
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
			tgbotapi.NewInlineKeyboardRow(button),
		)
	}

	nav := []tgbotapi.InlineKeyboardButton{}
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️", fmt.Sprintf("page:%d", page-1)))
	}
	if page < totalPages-1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("➡️", fmt.Sprintf("page:%d", page+1)))
	}
	if len(nav) > 0 {
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard, nav)
	}

	if user.City != "" || len(user.Tags) > 0 {
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🔀 Фильтр", "filter:"),
			),
		)
	}
	return keyboard
}

// eventPickKeyboard строит клавиатуру выбора события для действия action
func eventPickKeyboard(events []*models.Event, action string) tgbotapi.InlineKeyboardMarkup {
	keyboard := tgbotapi.NewInlineKeyboardMarkup()
	for _, event := range events {
		label := fmt.Sprintf("%s — %s", event.Name, event.Date)
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s:%d", action, event.ID)),
			),
		)
	}
	keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnCancel, "cancel:"),
		),
	)
	return keyboard
}

// eventEditKeyboard строит клавиатуру действий над выбранным событием
func eventEditKeyboard(eventID int64) tgbotapi.InlineKeyboardMarkup {
	ev := func(label, field string) tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardButtonData(label, "efield:"+field)
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(ev("🔤 Название", "name"), ev("📅 Дата", "date")),
		tgbotapi.NewInlineKeyboardRow(ev("🕐 Время", "time"), ev("🏙 Город", "city")),
		tgbotapi.NewInlineKeyboardRow(ev("👤 Организатор", "creator"), ev("📝 Описание", "description")),
		tgbotapi.NewInlineKeyboardRow(ev("🏆 Баллы", "points"), ev("🎟 Код", "code")),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📱 QR-код", fmt.Sprintf("qr:%d", eventID)),
			tgbotapi.NewInlineKeyboardButtonData("👥 Участники", fmt.Sprintf("who:%d", eventID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить", fmt.Sprintf("del:%d", eventID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnCancel, "cancel:"),
		),
	)
}

// deleteConfirmKeyboard строит клавиатуру подтверждения удаления события
func deleteConfirmKeyboard(eventID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Да, удалить", fmt.Sprintf("confirmdel:%d", eventID)),
			tgbotapi.NewInlineKeyboardButtonData(btnNo, "cancel:"),
		),
	)
}

// roleKeyboard строит клавиатуру выбора роли
func roleKeyboard() tgbotapi.InlineKeyboardMarkup {
	roles := []models.Role{models.RoleGuest, models.RoleUser, models.RoleModerator, models.RoleAdmin}
	keyboard := tgbotapi.NewInlineKeyboardMarkup()
	for _, role := range roles {
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(string(role), "role:"+string(role)),
			),
		)
	}
	keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnCancel, "cancel:"),
		),
	)
	return keyboard
}

// reportActionsKeyboard строит клавиатуру действий над существующим отчётом
func reportActionsKeyboard(eventID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Редактировать", fmt.Sprintf("rptedit:%d", eventID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить", fmt.Sprintf("rptdel:%d", eventID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnCancel, "cancel:"),
		),
	)
}

// reportEditKeyboard строит клавиатуру выбора поля отчёта
func reportEditKeyboard() tgbotapi.InlineKeyboardMarkup {
	rf := func(label, field string) tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardButtonData(label, "rfield:"+field)
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(rf("📅 Дата", "date"), rf("👥 Участники", "participants")),
		tgbotapi.NewInlineKeyboardRow(rf("📷 Фото", "photos"), rf("📝 Итоги", "summary")),
		tgbotapi.NewInlineKeyboardRow(rf("💬 Отзыв", "feedback")),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnCancel, "cancel:"),
		),
	)
}

// projectListKeyboard строит клавиатуру списка проектов с кнопками удаления
func projectListKeyboard(projects []*models.Project) tgbotapi.InlineKeyboardMarkup {
	keyboard := tgbotapi.NewInlineKeyboardMarkup()
	for _, project := range projects {
		keyboard.InlineKeyboard = append(keyboard.InlineKeyboard,
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("🗑 %s", project.Name),
					fmt.Sprintf("delproject:%d", project.ID),
				),
			),
		)
	}
	return keyboard
}
