package portal

import (
	"fmt"
	"os"
	"strings"

	"lottoAgent/internal/browser"

	"gopkg.in/yaml.v3"
)

// Catalog - все точки взаимодействия с порталом в виде списков кандидатов.
type Catalog struct {
	Session           SessionSelectors `yaml:"session"`
	Account           AccountSelectors `yaml:"account"`
	Lotto645          GameSelectors    `yaml:"lotto645"`
	Pension720Mobile  GameSelectors    `yaml:"pension720_mobile"`
	Pension720Desktop GameSelectors    `yaml:"pension720_desktop"`
}

type SessionSelectors struct {
	LoggedIn []string `yaml:"logged_in"`
	UserID   []string `yaml:"user_id"`
	Password []string `yaml:"password"`
	Submit   []string `yaml:"submit"`
}

type AccountSelectors struct {
	Deposit   []string `yaml:"deposit"`
	Available []string `yaml:"available"`
	LoginLink []string `yaml:"login_link"`
}

// GameSelectors описывает страницу покупки одного продукта.
// Number - шаблон селектора, в который подставляется номер через %d.
type GameSelectors struct {
	Frame        string   `yaml:"frame"`
	Ready        []string `yaml:"ready"`
	FrameUserID  string   `yaml:"frame_user_id"`
	Overlays     []string `yaml:"overlays"`
	Open         []string `yaml:"open"`
	PreSelect    []string `yaml:"pre_select"`
	AutoMode     []string `yaml:"auto_mode"`
	AutoCount    []string `yaml:"auto_count"`
	Number       string   `yaml:"number"`
	ConfirmSet   []string `yaml:"confirm_set"`
	PayAmount    []string `yaml:"pay_amount"`
	Buy          []string `yaml:"buy"`
	ConfirmBuy   []string `yaml:"confirm_buy"`
	LimitPopup   []string `yaml:"limit_popup"`
	LimitMessage []string `yaml:"limit_message"`
}

func Default() *Catalog {
	return &Catalog{
		Session: SessionSelectors{
			LoggedIn: []string{"text=" + LoggedInText, ".btn_logout"},
			UserID:   []string{"#inpUserId", "input[name='userId']"},
			Password: []string{"#inpUserPswdEncn", "input[type='password']"},
			Submit:   []string{"#btnLogin", "button:has-text('로그인')"},
		},
		Account: AccountSelectors{
			Deposit:   []string{"#navTotalAmt", "#totalAmt", ".pntDpstAmt", ".totalAmt"},
			Available: []string{"#divCrntEntrsAmt", "#tooltipTotalAmt", ".pntDpstAmt"},
			LoginLink: []string{"role=link[name='로그인']"},
		},
		Lotto645: GameSelectors{
			Frame:       "#ifrm_tab",
			Ready:       []string{"#num2", "#btnSelectNum"},
			FrameUserID: "input[name='USER_ID']",
			Overlays:    []string{".pause_layer_pop", ".pause_bg", "#popupLayerAlert"},
			AutoMode:    []string{"#num2"},
			AutoCount:   []string{"#amoundApply"},
			Number:      `label[for="check645num%d"]`,
			ConfirmSet:  []string{"#btnSelectNum"},
			PayAmount:   []string{"#payAmt"},
			Buy:         []string{"#btnBuy"},
			ConfirmBuy:  []string{"#popupLayerConfirm input[value='확인']"},
			LimitPopup:  []string{"#recommend720Plus"},
			LimitMessage: []string{
				"#recommend720Plus .cont1",
				"#recommend720Plus",
			},
		},
		Pension720Mobile: GameSelectors{
			Ready:      []string{".btn_gray_st1:has-text('번호 선택하기')"},
			Open:       []string{".btn_gray_st1:has-text('번호 선택하기')"},
			AutoMode:   []string{"#btn_set_auto"},
			ConfirmSet: []string{"#btn_set_comp"},
			PayAmount:  []string{"#totalAmt", ".total_amt", ".price_total"},
			Buy:        []string{".btn_blue:has-text('구매하기')"},
			ConfirmBuy: []string{
				"#popupLayerConfirm >> role=button[name='확인']",
				"role=button[name='확인']",
			},
			LimitPopup:   []string{"#popupLayerAlert:has-text('한도')"},
			LimitMessage: []string{"#popupLayerAlert .cont1", "#popupLayerAlert"},
		},
		Pension720Desktop: GameSelectors{
			Frame:    "#ifrm_tab",
			Ready:    []string{".lotto720_btn_auto_number", "text=자동번호"},
			Overlays: []string{".pause_layer_pop", ".pause_bg"},
			PreSelect: []string{
				"label[for='lotto720_radio_group_all']",
				"text=모든조",
			},
			AutoMode:   []string{".lotto720_btn_auto_number", "text=자동번호"},
			ConfirmSet: []string{".lotto720_btn_confirm_number", "text=선택완료"},
			PayAmount:  []string{".lotto720_price", "#lotto720_price"},
			Buy:        []string{".lotto720_btn_pay", "text=구매하기"},
			ConfirmBuy: []string{
				"#lotto720_popup_confirm a.btn_confirm",
				"#popupLayerConfirm input[value='확인']",
			},
			LimitPopup:   []string{"#lotto720_popup_pay_limit", "#recommend720Plus"},
			LimitMessage: []string{"#lotto720_popup_pay_limit .cont1", "#recommend720Plus .cont1"},
		},
	}
}

// LoadCatalog возвращает каталог по умолчанию, поверх которого применен YAML-файл.
// Поля, отсутствующие в файле, остаются прежними.
func LoadCatalog(path string) (*Catalog, error) {
	catalog := Default()
	if path == "" {
		return catalog, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение файла селекторов: %w", err)
	}

	if err := yaml.Unmarshal(data, catalog); err != nil {
		return nil, fmt.Errorf("разбор файла селекторов %s: %w", path, err)
	}

	if err := catalog.normalize(); err != nil {
		return nil, err
	}

	return catalog, nil
}

func (c *Catalog) normalize() error {
	lists := []*[]string{
		&c.Session.LoggedIn, &c.Session.UserID, &c.Session.Password, &c.Session.Submit,
		&c.Account.Deposit, &c.Account.Available, &c.Account.LoginLink,
	}
	for _, game := range []*GameSelectors{&c.Lotto645, &c.Pension720Mobile, &c.Pension720Desktop} {
		lists = append(lists,
			&game.Ready, &game.Overlays, &game.Open, &game.PreSelect, &game.AutoMode,
			&game.AutoCount, &game.ConfirmSet, &game.PayAmount, &game.Buy,
			&game.ConfirmBuy, &game.LimitPopup, &game.LimitMessage,
		)
		if game.Number != "" && !strings.Contains(game.Number, "%d") {
			return fmt.Errorf("шаблон номера %q должен содержать %%d", game.Number)
		}
	}

	for _, list := range lists {
		for i, selector := range *list {
			if err := browser.ValidateSelector(selector); err != nil {
				return err
			}
			(*list)[i], _ = browser.NormalizeSelector(selector)
		}
	}

	return nil
}
