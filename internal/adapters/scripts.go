package adapters

import (
	"encoding/json"
	"fmt"
)

// selectCourseScriptTemplate looks for a select option, tab, button or radio
// label whose text contains the filter and activates it. It evaluates to
// whether anything was selected.
const selectCourseScriptTemplate = `(() => {
	const needle = %s.toLowerCase();
	const matches = (el) => (el.textContent || el.value || "").toLowerCase().includes(needle);
	for (const select of document.querySelectorAll("select")) {
		for (const option of select.options) {
			if (matches(option)) {
				select.value = option.value;
				select.dispatchEvent(new Event("change", { bubbles: true }));
				return true;
			}
		}
	}
	for (const label of document.querySelectorAll("label")) {
		const input = label.control || label.querySelector("input[type=radio]");
		if (input && input.type === "radio" && matches(label)) {
			input.click();
			return true;
		}
	}
	const tabs = document.querySelectorAll("[role=tab], .nav-tabs a, .course-tab, button");
	for (const tab of tabs) {
		if (matches(tab)) {
			tab.click();
			return true;
		}
	}
	return false;
})()`

func selectCourseScript(filter string) (string, error) {
	encoded, err := json.Marshal(filter)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(selectCourseScriptTemplate, encoded), nil
}

// setDateScriptTemplate writes a date into the first matching date input and
// fires the events date pickers listen to.
const setDateScriptTemplate = `(() => {
	const input = document.querySelector(%s);
	if (!input) {
		return false;
	}
	input.value = %s;
	input.dispatchEvent(new Event("input", { bubbles: true }));
	input.dispatchEvent(new Event("change", { bubbles: true }));
	if (window.jQuery) {
		window.jQuery(input).trigger("change");
	}
	return true;
})()`

func setDateScript(selector, value string) (string, error) {
	encodedSelector, err := json.Marshal(selector)
	if err != nil {
		return "", err
	}
	encodedValue, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(setDateScriptTemplate, encodedSelector, encodedValue), nil
}

// clickScriptTemplate clicks the first element matching a selector.
const clickScriptTemplate = `(() => {
	const el = document.querySelector(%s);
	if (!el) {
		return false;
	}
	el.click();
	return true;
})()`

func clickScript(selector string) (string, error) {
	encoded, err := json.Marshal(selector)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(clickScriptTemplate, encoded), nil
}
